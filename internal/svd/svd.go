package svd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrFactorize = errors.New("cannot factorize")
	ErrRank      = errors.New("rank out of range")
)

// Factors holds the thin decomposition A = U * diag(S) * V^T.
// U is Rows x k, V is Cols x k and S is sorted in descending order,
// where k = min(Rows, Cols).
type Factors struct {
	Rows, Cols int
	U, V       *mat.Dense
	S          []float64
}

// Factorize computes the thin SVD of a.
func Factorize(a mat.Matrix) (*Factors, error) {
	r, c := a.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d matrix", ErrFactorize, r, c)
	}

	var result mat.SVD
	if ok := result.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: %dx%d matrix did not converge", ErrFactorize, r, c)
	}

	f := &Factors{
		Rows: r,
		Cols: c,
		U:    new(mat.Dense),
		V:    new(mat.Dense),
		S:    result.Values(nil),
	}
	result.UTo(f.U)
	result.VTo(f.V)
	return f, nil
}

// Rank returns the number of singular values, min(Rows, Cols).
func (f *Factors) Rank() int {
	return len(f.S)
}

// Reconstruct builds U[:, :r] * diag(S[:r]) * V[:, :r]^T.
func (f *Factors) Reconstruct(r int) (*mat.Dense, error) {
	if r < 1 || r > f.Rank() {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrRank, r, f.Rank())
	}

	u := f.U.Slice(0, f.Rows, 0, r)
	v := f.V.Slice(0, f.Cols, 0, r)

	// Scale the columns of U instead of materializing diag(S).
	var us mat.Dense
	us.CloneFrom(u)
	for j := range r {
		col := us.ColView(j).(*mat.VecDense)
		col.ScaleVec(f.S[j], col)
	}

	res := mat.NewDense(f.Rows, f.Cols, nil)
	res.Mul(&us, v.T())
	return res, nil
}

// TailNorm is the Frobenius error of the best rank-r approximation
// predicted by the discarded singular values.
func (f *Factors) TailNorm(r int) float64 {
	var sum float64
	for i := max(r, 0); i < len(f.S); i++ {
		sum += f.S[i] * f.S[i]
	}
	return math.Sqrt(sum)
}

// Energy returns the share of the singular value sum held by the first r values.
func (f *Factors) Energy(r int) float64 {
	var total, kept float64
	for i, s := range f.S {
		total += s
		if i < r {
			kept += s
		}
	}
	if total == 0 {
		return 1
	}
	return kept / total
}

// Frobenius returns ||a - b||_F.
func Frobenius(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return mat.Norm(&diff, 2)
}
