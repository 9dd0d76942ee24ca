package texture

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/world"

	"golang.org/x/image/draw"
)

// HalfBlock packs two vertical pixels into one cell: fg is the upper pixel,
// bg the lower one.
const HalfBlock = '▀'

// maxTileCells caps the natural size of tiled image textures.
const maxTileCells = 64

// ImageProvider serves PNG images from a directory, keyed by file name
// without extension. Images are decoded on first use.
type ImageProvider struct {
	dir        string
	darkFactor float64

	mu     sync.Mutex
	images map[string]image.Image
	failed map[string]bool

	cache *Cache
}

// NewImageProvider creates a provider reading from dir.
func NewImageProvider(dir string) *ImageProvider {
	return &ImageProvider{
		dir:        dir,
		darkFactor: DefaultDarkFactor,
		images:     make(map[string]image.Image),
		failed:     make(map[string]bool),
		cache:      NewCache(),
	}
}

// AddImage registers an already decoded image under key.
func (ip *ImageProvider) AddImage(key string, img image.Image) {
	ip.mu.Lock()
	ip.images[key] = img
	delete(ip.failed, key)
	ip.mu.Unlock()
	ip.cache.Clear()
}

// Texture implements Provider.
func (ip *ImageProvider) Texture(key string, width, height int, tile *world.EntryInfo, light bool) Texture {
	if width <= 0 || height <= 0 {
		return nil
	}
	img := ip.image(key)
	if img == nil {
		return nil
	}

	mode := modeFor(tile, ScaleToFit)
	ck := CacheKey{Key: key, Width: width, Height: height, Light: light, Mode: mode}
	return ip.cache.GetOrCreate(ck, func() Texture {
		var p *Pattern
		if mode == Tile {
			b := img.Bounds()
			w := min(b.Dx(), maxTileCells)
			h := min((b.Dy()+1)/2, maxTileCells)
			p = ImagePattern(img, w, h)
		} else {
			p = ImagePattern(img, width, height)
		}
		if p == nil {
			return nil
		}
		tex := Resolve(p, mode, width, height)
		if !light {
			tex = Shade(tex, ip.darkFactor)
		}
		return tex
	})
}

func (ip *ImageProvider) image(key string) image.Image {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	if img, ok := ip.images[key]; ok {
		return img
	}
	if ip.failed[key] || ip.dir == "" || strings.ContainsAny(key, `/\`) {
		return nil
	}

	img, err := decodeImage(filepath.Join(ip.dir, key+".png"))
	if err != nil {
		// Missing files are ordinary misses; other providers may serve the key
		if !os.IsNotExist(err) {
			logging.For("texture").WithError(err).WithField("key", key).Warn("failed to load image texture")
		}
		ip.failed[key] = true
		return nil
	}
	ip.images[key] = img
	return img
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// ImagePattern scales img to width×(2·height) pixels and packs each pair of
// rows into half-block cells. It returns nil for an empty image or size.
func ImagePattern(img image.Image, width, height int) *Pattern {
	if width <= 0 || height <= 0 || img.Bounds().Empty() {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height*2))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	cells := make([]glyph.Cell, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cells = append(cells, glyph.Cell{
				Rune: HalfBlock,
				Fg:   glyph.FromStd(dst.RGBAAt(x, y*2)),
				Bg:   glyph.FromStd(dst.RGBAAt(x, y*2+1)),
			})
		}
	}
	p, err := PatternFromCells(width, height, cells)
	if err != nil {
		return nil
	}
	return p
}
