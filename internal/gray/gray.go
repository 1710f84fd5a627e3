package gray

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/mat"
)

// https://github.com/opencv/opencv/blob/0e88b49a53842f0f7cdc4c61b98c283be7e5057c/modules/imgproc/src/opencl/color_yuv.cl#L148-L234
const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
)

// Mode selects how the color channels are folded into one intensity.
type Mode int

const (
	// ModeMean averages R, G and B with equal weight.
	ModeMean Mode = iota
	// ModeLuma weights the channels by BT.601 luma coefficients.
	ModeLuma
)

func (m Mode) String() string {
	switch m {
	case ModeMean:
		return "mean"
	case ModeLuma:
		return "luma"
	}
	return "unknown"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "mean":
		return ModeMean, true
	case "luma":
		return ModeLuma, true
	}
	return 0, false
}

// Matrix converts src into a height x width intensity matrix in [0, 255].
func (m Mode) Matrix(src image.Image) *mat.Dense {
	if m == ModeLuma {
		return Luma(src)
	}
	return Mean(src)
}

// Mean averages the color channels of every pixel. Alpha is ignored.
func Mean(src image.Image) *mat.Dense {
	return convert(src, func(r, g, b float64) float64 {
		return (r + g + b) / 3
	})
}

func Luma(src image.Image) *mat.Dense {
	return convert(src, func(r, g, b float64) float64 {
		return yr*r + yg*g + yb*b
	})
}

func convert(src image.Image, fn func(r, g, b float64) float64) *mat.Dense {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]float64, width*height)

	idx := 0
	for y := range height {
		for x := range width {
			// Un-premultiply so translucent pixels keep their color.
			c := color.NRGBA64Model.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			data[idx] = fn(float64(c.R)/257, float64(c.G)/257, float64(c.B)/257)
			idx++
		}
	}
	return mat.NewDense(height, width, data)
}

// ToImage renders an intensity matrix as a 16-bit grayscale image,
// clipping values outside [0, 255].
func ToImage(m mat.Matrix) *image.Gray16 {
	rows, cols := m.Dims()
	dist := image.NewGray16(image.Rect(0, 0, cols, rows))
	for y := range rows {
		for x := range cols {
			dist.SetGray16(x, y, color.Gray16{Y: clip16(m.At(y, x))})
		}
	}
	return dist
}

func clip16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 65535
	}
	return uint16(v*257.0 + 0.5)
}
