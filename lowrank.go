package lowrank

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/yyyoichi/lowrank/internal/gray"
	"github.com/yyyoichi/lowrank/internal/images"
	"github.com/yyyoichi/lowrank/internal/svd"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrLoad          = errors.New("cannot load image")
	ErrFactorize     = svd.ErrFactorize
	ErrRank          = svd.ErrRank
	ErrInvalidOption = errors.New("invalid option")
)

// Compress reduces src to grayscale and reconstructs it at every configured rank.
// This is a convenience function that creates a Compressor and calls its Compress method.
func Compress(ctx context.Context, src image.Image, opts ...Option) (*Result, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Compress(ctx, src)
}

type Compressor struct {
	ranks   []int
	mode    gray.Mode
	maxSide int
}

// New initializes a compressor.
// Without options it reconstructs ranks 5, 20 and 100 from the channel mean
// of the full-size image.
func New(opts ...Option) (*Compressor, error) {
	c := new(Compressor)
	if err := c.init(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compressor) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return fmt.Errorf("%w:%w", ErrInvalidOption, err)
		}
	}
	if len(c.ranks) == 0 {
		c.ranks = []int{5, 20, 100}
	}
	return nil
}

// Ranks returns the configured ranks in request order.
func (c *Compressor) Ranks() []int {
	return append([]int(nil), c.ranks...)
}

// Decompose converts src to a grayscale matrix and factorizes it.
func (c *Compressor) Decompose(ctx context.Context, src image.Image) (*Decomposition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrFactorize)
	}
	src = images.Fit(src, c.maxSide)
	g := c.mode.Matrix(src)
	f, err := svd.Factorize(g)
	if err != nil {
		return nil, err
	}
	return &Decomposition{Gray: g, Factors: f, Mode: c.mode, norm: mat.Norm(g, 2)}, nil
}

// Compress decomposes src and reconstructs it at each configured rank.
//
// Process:
//  1. Downscales the image when a maximum side is configured.
//  2. Averages the color channels into an intensity matrix.
//  3. Computes the thin SVD of the matrix.
//  4. Rebuilds the matrix from the leading r singular triplets for each rank.
//
// Ranks larger than min(height, width) are clamped to it, and ranks that
// collapse onto the same value are reconstructed once, at their first position.
func (c *Compressor) Compress(ctx context.Context, src image.Image) (*Result, error) {
	d, err := c.Decompose(ctx, src)
	if err != nil {
		return nil, err
	}

	ranks := clampRanks(c.ranks, d.Factors.Rank())
	approximations := make([]*Approximation, len(ranks))
	errs := make([]error, len(ranks))
	var wg sync.WaitGroup
	wg.Add(len(ranks))
	for i, r := range ranks {
		go func(i, r int) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			approximations[i], errs[i] = d.Approximate(r)
		}(i, r)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Result{Decomposition: d, Approximations: approximations}, nil
}

func clampRanks(ranks []int, k int) []int {
	seen := make(map[int]bool, len(ranks))
	clamped := make([]int, 0, len(ranks))
	for _, r := range ranks {
		r = min(r, k)
		if seen[r] {
			continue
		}
		seen[r] = true
		clamped = append(clamped, r)
	}
	return clamped
}

// Decomposition is the grayscale source together with its singular value factors.
type Decomposition struct {
	Gray    *mat.Dense
	Factors *svd.Factors
	Mode    gray.Mode

	// norm is ||Gray||_F.
	norm float64
}

// Dims returns the height and width of the source.
func (d *Decomposition) Dims() (height, width int) {
	return d.Gray.Dims()
}

// SingularValues returns a copy of the spectrum in descending order.
func (d *Decomposition) SingularValues() []float64 {
	return append([]float64(nil), d.Factors.S...)
}

// Image renders the grayscale source.
func (d *Decomposition) Image() image.Image {
	return gray.ToImage(d.Gray)
}

// Approximate reconstructs the source from its r leading singular triplets.
// r must lie in [1, min(height, width)].
func (d *Decomposition) Approximate(r int) (*Approximation, error) {
	m, err := d.Factors.Reconstruct(r)
	if err != nil {
		return nil, err
	}
	h, w := d.Dims()
	a := &Approximation{
		Rank:         r,
		Matrix:       m,
		Error:        svd.Frobenius(d.Gray, m),
		Energy:       d.Factors.Energy(r),
		StorageRatio: float64(r*(h+w+1)) / float64(h*w),
	}
	if d.norm > 0 {
		a.RelativeError = a.Error / d.norm
	}
	return a, nil
}

// Approximation is a rank-r reconstruction of a Decomposition.
type Approximation struct {
	Rank   int
	Matrix *mat.Dense
	// Error is the Frobenius norm of the difference to the source.
	Error         float64
	RelativeError float64
	// Energy is the share of the singular value sum kept.
	Energy float64
	// StorageRatio compares r(h+w+1) stored factors against h*w pixels.
	StorageRatio float64
}

func (a *Approximation) Image() image.Image {
	return gray.ToImage(a.Matrix)
}

type Result struct {
	*Decomposition
	// Approximations follow the order of the configured ranks, after
	// clamping and dropping repeats.
	Approximations []*Approximation
}
