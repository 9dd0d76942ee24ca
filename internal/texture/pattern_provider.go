package texture

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"glyphcaster/internal/glyph"
	"glyphcaster/internal/world"

	"gopkg.in/yaml.v3"
)

// DefaultDarkFactor shades the dark variant of pattern textures.
const DefaultDarkFactor = 0.7

type patternEntry struct {
	pattern *Pattern
	mode    Mode
}

// PatternProvider serves in-memory glyph patterns. A tile's texture
// instructions may override the pattern's fit mode ("mode=tile").
type PatternProvider struct {
	mu         sync.RWMutex
	patterns   map[string]patternEntry
	darkFactor float64
	cache      *Cache
}

// NewPatternProvider creates an empty provider.
func NewPatternProvider() *PatternProvider {
	return &PatternProvider{
		patterns:   make(map[string]patternEntry),
		darkFactor: DefaultDarkFactor,
		cache:      NewCache(),
	}
}

// SetDarkFactor changes how much dark variants are shaded.
func (pp *PatternProvider) SetDarkFactor(f float64) {
	pp.mu.Lock()
	pp.darkFactor = f
	pp.mu.Unlock()
	pp.cache.Clear()
}

// Add registers or replaces a pattern.
func (pp *PatternProvider) Add(key string, p *Pattern, mode Mode) {
	pp.mu.Lock()
	pp.patterns[key] = patternEntry{pattern: p, mode: mode}
	pp.mu.Unlock()
	pp.cache.Clear()
}

// Keys returns the registered pattern keys in sorted order.
func (pp *PatternProvider) Keys() []string {
	pp.mu.RLock()
	defer pp.mu.RUnlock()
	keys := make([]string, 0, len(pp.patterns))
	for k := range pp.patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Texture implements Provider.
func (pp *PatternProvider) Texture(key string, width, height int, tile *world.EntryInfo, light bool) Texture {
	pp.mu.RLock()
	entry, ok := pp.patterns[key]
	darkFactor := pp.darkFactor
	pp.mu.RUnlock()
	if !ok || width <= 0 || height <= 0 {
		return nil
	}

	mode := modeFor(tile, entry.mode)

	ck := CacheKey{Key: key, Width: width, Height: height, Light: light, Mode: mode}
	return pp.cache.GetOrCreate(ck, func() Texture {
		tex := Resolve(entry.pattern, mode, width, height)
		if !light {
			tex = Shade(tex, darkFactor)
		}
		return tex
	})
}

// PatternFile is the on-disk format read by LoadPatterns.
type PatternFile struct {
	Patterns map[string]PatternData `yaml:"patterns"`
}

// PatternData describes one pattern texture.
type PatternData struct {
	Rows       []string `yaml:"rows"`
	Foreground string   `yaml:"fg"`
	Background string   `yaml:"bg"`
	Mode       string   `yaml:"mode"`
}

// LoadPatterns adds every pattern from a YAML file.
func (pp *PatternProvider) LoadPatterns(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read texture file: %w", err)
	}

	var file PatternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse texture file: %w", err)
	}

	for key, pd := range file.Patterns {
		fg, err := glyph.Hex(pd.Foreground)
		if err != nil {
			return fmt.Errorf("texture %q: %w", key, err)
		}
		bg, err := glyph.Hex(pd.Background)
		if err != nil {
			return fmt.Errorf("texture %q: %w", key, err)
		}
		mode, err := ParseMode(pd.Mode)
		if err != nil {
			return fmt.Errorf("texture %q: %w", key, err)
		}
		p, err := NewPattern(pd.Rows, fg, bg)
		if err != nil {
			return fmt.Errorf("texture %q: %w", key, err)
		}
		pp.Add(key, p, mode)
	}
	return nil
}
