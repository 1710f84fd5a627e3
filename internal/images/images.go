package images

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/yyyoichi/httpcache-go"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultCacheDir stores remote images between runs.
var DefaultCacheDir = filepath.Join(os.TempDir(), "lowrank_http_cache")

type Loader struct {
	client httpcache.Client
}

// NewLoader returns a Loader whose remote fetches are cached under cacheDir.
// An empty cacheDir selects DefaultCacheDir.
func NewLoader(cacheDir string) *Loader {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}
	if !strings.HasSuffix(cacheDir, string(filepath.Separator)) {
		cacheDir += string(filepath.Separator)
	}
	return &Loader{
		client: httpcache.Client{
			Client:  http.DefaultClient,
			Cache:   httpcache.NewStorageCache(cacheDir),
			Handler: httpcache.NewDefaultHandler(),
		},
	}
}

// Open reads the image at src, which is either a local path or an http(s) URL.
func (l *Loader) Open(ctx context.Context, src string) (image.Image, string, error) {
	if IsRemote(src) {
		return l.fetch(ctx, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return Decode(f)
}

func (l *Loader) fetch(ctx context.Context, uri string) (image.Image, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	return Decode(resp.Body)
}

// Decode decodes any registered format and reports its name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fit downscales src so that its longer side is at most maxSide,
// keeping the aspect ratio. Smaller images and maxSide <= 0 return src as is.
func Fit(src image.Image, maxSide int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxSide <= 0 || max(width, height) <= maxSide {
		return src
	}

	targetWidth, targetHeight := maxSide, maxSide
	if width >= height {
		targetHeight = max(1, int(float64(height)*float64(maxSide)/float64(width)+0.5))
	} else {
		targetWidth = max(1, int(float64(width)*float64(maxSide)/float64(height)+0.5))
	}

	dist := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dist, dist.Bounds(), src, bounds, draw.Over, nil)
	return dist
}
