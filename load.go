package lowrank

import (
	"context"
	"fmt"
	"image"

	"github.com/yyyoichi/lowrank/internal/images"
)

type LoadOption func(*loadConfig)

type loadConfig struct {
	cacheDir string
}

// WithCacheDir sets the directory that caches images fetched over http(s).
func WithCacheDir(dir string) LoadOption {
	return func(c *loadConfig) {
		c.cacheDir = dir
	}
}

// Load reads and decodes the image at src, a local path or an http(s) URL.
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
// Every failure wraps ErrLoad.
func Load(ctx context.Context, src string, opts ...LoadOption) (image.Image, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	img, _, err := images.NewLoader(cfg.cacheDir).Open(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w:%w", ErrLoad, err)
	}
	return img, nil
}
