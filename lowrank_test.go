package lowrank_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/lowrank"
	"github.com/yyyoichi/lowrank/internal/gray"
)

// textured returns a deterministic image with full-rank structure.
func textured(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			r := uint8(x * 255 / width)
			g := uint8(y * 255 / height)
			b := uint8((x*x*7 + y*13 + x*y*5) % 256)
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

func TestCompress_FullRankEqualsSource(t *testing.T) {
	img := textured(20, 12)
	res, err := lowrank.Compress(context.Background(), img, lowrank.WithRanks(12))
	require.NoError(t, err)
	require.Len(t, res.Approximations, 1)

	a := res.Approximations[0]
	assert.Equal(t, 12, a.Rank)
	h, w := res.Dims()
	for y := range h {
		for x := range w {
			assert.InDelta(t, res.Gray.At(y, x), a.Matrix.At(y, x), 1e-8, "(%d,%d)", x, y)
		}
	}
	assert.InDelta(t, 0, a.Error, 1e-8)
	assert.InDelta(t, 1, a.Energy, 1e-12)
}

func TestCompress_ErrorNonIncreasing(t *testing.T) {
	c, err := lowrank.New(lowrank.WithRanks(1, 2, 3, 5, 8, 13, 16))
	require.NoError(t, err)

	res, err := c.Compress(context.Background(), textured(16, 24))
	require.NoError(t, err)
	require.Len(t, res.Approximations, 7)

	for i, a := range res.Approximations {
		assert.Equal(t, c.Ranks()[i], a.Rank, "approximations keep request order")
		assert.GreaterOrEqual(t, a.Error, 0.0)
		if i > 0 {
			prev := res.Approximations[i-1]
			assert.LessOrEqual(t, a.Error, prev.Error+1e-9, "rank %d vs %d", a.Rank, prev.Rank)
			assert.GreaterOrEqual(t, a.Energy, prev.Energy)
			assert.Greater(t, a.StorageRatio, prev.StorageRatio)
		}
		assert.InDelta(t, res.Factors.TailNorm(a.Rank), a.Error, 1e-6, "rank %d", a.Rank)
	}
	assert.InDelta(t, 0, res.Approximations[6].Error, 1e-6)
}

func TestCompress_ConstantImageRankOne(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 17, 9))
	for y := range 9 {
		for x := range 17 {
			img.Set(x, y, color.RGBA{30, 60, 90, 255})
		}
	}
	res, err := lowrank.Compress(context.Background(), img, lowrank.WithRanks(1))
	require.NoError(t, err)

	a := res.Approximations[0]
	for y := range 9 {
		for x := range 17 {
			assert.InDelta(t, 60.0, a.Matrix.At(y, x), 1e-9)
		}
	}
	// Rendering rounds back onto the exact source levels.
	assert.Equal(t, res.Image(), a.Image())
}

func TestCompress_ClampsRank(t *testing.T) {
	res, err := lowrank.Compress(context.Background(), textured(10, 6), lowrank.WithRanks(5, 20, 100))
	require.NoError(t, err)

	ranks := make([]int, 0, len(res.Approximations))
	for _, a := range res.Approximations {
		ranks = append(ranks, a.Rank)
	}
	assert.Equal(t, []int{5, 6}, ranks)
}

func TestCompress_ClampedRanksAreDistinct(t *testing.T) {
	res, err := lowrank.Compress(context.Background(), textured(10, 6), lowrank.WithRanks(20, 100, 3, 3, 6))
	require.NoError(t, err)

	ranks := make([]int, 0, len(res.Approximations))
	for _, a := range res.Approximations {
		ranks = append(ranks, a.Rank)
	}
	assert.Equal(t, []int{6, 3}, ranks, "first occurrence wins")
}

func TestDecomposition_RelativeError(t *testing.T) {
	c, err := lowrank.New()
	require.NoError(t, err)
	d, err := c.Decompose(context.Background(), textured(9, 7))
	require.NoError(t, err)

	var sum float64
	for _, s := range d.SingularValues() {
		sum += s * s
	}
	// ||A||_F^2 equals the sum of squared singular values.
	for r := 1; r <= 7; r++ {
		a, err := d.Approximate(r)
		require.NoError(t, err)
		assert.InDelta(t, a.Error/math.Sqrt(sum), a.RelativeError, 1e-9, "rank %d", r)
	}
}

func TestDecomposition_Approximate(t *testing.T) {
	c, err := lowrank.New()
	require.NoError(t, err)
	assert.Equal(t, []int{5, 20, 100}, c.Ranks())

	d, err := c.Decompose(context.Background(), textured(8, 5))
	require.NoError(t, err)
	h, w := d.Dims()
	assert.Equal(t, 5, h)
	assert.Equal(t, 8, w)
	assert.Len(t, d.SingularValues(), 5)

	for _, r := range []int{0, 6} {
		_, err := d.Approximate(r)
		assert.ErrorIs(t, err, lowrank.ErrRank, "rank %d", r)
	}

	a, err := d.Approximate(2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 5), a.Image().Bounds())
	assert.InDelta(t, float64(2*(5+8+1))/float64(5*8), a.StorageRatio, 1e-12)
	assert.Greater(t, a.RelativeError, 0.0)
	assert.Less(t, a.RelativeError, 1.0)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := lowrank.New(lowrank.WithRanks(5, 0))
	assert.ErrorIs(t, err, lowrank.ErrInvalidOption)

	_, err = lowrank.New(lowrank.WithGrayMode(gray.Mode(7)))
	assert.ErrorIs(t, err, lowrank.ErrInvalidOption)
}

func TestCompress_GrayModeAndMaxSide(t *testing.T) {
	img := textured(40, 20)
	res, err := lowrank.Compress(context.Background(), img,
		lowrank.WithGrayMode(gray.ModeLuma),
		lowrank.WithMaxSide(10),
		lowrank.WithRanks(1),
	)
	require.NoError(t, err)
	assert.Equal(t, gray.ModeLuma, res.Mode)
	h, w := res.Dims()
	assert.Equal(t, 5, h)
	assert.Equal(t, 10, w)
}

func TestCompress_EmptyImage(t *testing.T) {
	_, err := lowrank.Compress(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 4)))
	assert.ErrorIs(t, err, lowrank.ErrFactorize)
}

func TestCompress_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := lowrank.Compress(ctx, textured(8, 8))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(dir, "im.png")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, textured(6, 4)))
		require.NoError(t, f.Close())

		img, err := lowrank.Load(context.Background(), path, lowrank.WithCacheDir(filepath.Join(dir, "cache")))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := lowrank.Load(context.Background(), filepath.Join(dir, "missing.png"))
		assert.ErrorIs(t, err, lowrank.ErrLoad)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.png")
		require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644))
		_, err := lowrank.Load(context.Background(), path)
		assert.ErrorIs(t, err, lowrank.ErrLoad)
	})
}
