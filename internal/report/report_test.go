package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "im.png", []float64{120, 40, 8, 0}, []Point{
		{Rank: 1, Energy: 0.71, RelativeError: 0.3, StorageRatio: 0.05},
		{Rank: 3, Energy: 1, RelativeError: 0, StorageRatio: 0.15},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "im.png")
	assert.Contains(t, html, "Singular values")
	assert.Contains(t, html, "Cumulative energy")
	assert.Contains(t, html, "Relative error")
}

func TestWrite_EmptySpectrum(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, "empty", nil, nil))
	assert.Zero(t, buf.Len())
}
