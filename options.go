package lowrank

import (
	"fmt"

	"github.com/yyyoichi/lowrank/internal/gray"
)

type Option func(*Compressor) error

// WithRanks sets the ranks to reconstruct, in output order.
// Every rank must be at least 1. Ranks beyond min(height, width) of the
// image are clamped when compressing.
func WithRanks(ranks ...int) Option {
	return func(c *Compressor) error {
		for _, r := range ranks {
			if r < 1 {
				return fmt.Errorf("rank %d < 1", r)
			}
		}
		c.ranks = append([]int(nil), ranks...)
		return nil
	}
}

// WithGrayMode selects how color channels are folded into intensity.
// The default, gray.ModeMean, averages R, G and B.
func WithGrayMode(mode gray.Mode) Option {
	return func(c *Compressor) error {
		if mode != gray.ModeMean && mode != gray.ModeLuma {
			return fmt.Errorf("unknown gray mode %d", mode)
		}
		c.mode = mode
		return nil
	}
}

// WithMaxSide downscales images whose longer side exceeds n pixels before
// decomposing. The dense SVD grows cubically with the image side, so this
// bounds the cost on large photos. n <= 0 disables downscaling.
func WithMaxSide(n int) Option {
	return func(c *Compressor) error {
		c.maxSide = n
		return nil
	}
}
