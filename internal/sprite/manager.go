package sprite

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"unicode/utf8"

	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"

	"gopkg.in/yaml.v3"
)

// SpriteFile is the on-disk sprite catalogue.
type SpriteFile struct {
	Sprites map[string]SpriteData `yaml:"sprites"`
}

// SpriteData describes one sprite provider. Variants are angle variants,
// variant 0 facing the viewer. Frames, when set, animate a list of variant
// sets instead.
type SpriteData struct {
	Scale         float64           `yaml:"scale"`
	Alpha         string            `yaml:"alpha"`
	Foreground    string            `yaml:"fg"`
	Background    string            `yaml:"bg"`
	Palette       map[string]string `yaml:"palette"`
	Variants      [][]string        `yaml:"variants"`
	Frames        [][][]string      `yaml:"frames"`
	TicksPerFrame int               `yaml:"ticks_per_frame"`
}

// Manager holds named sprite providers and hands out a placeholder for
// names it does not know.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
	animated  []*Animated
	missing   map[string]bool
}

// NewManager creates an empty sprite manager.
func NewManager() *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		missing:   make(map[string]bool),
	}
}

// Add registers a provider under name.
func (m *Manager) Add(name string, p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
	if a, ok := p.(*Animated); ok {
		m.animated = append(m.animated, a)
	}
}

// GetProvider returns the named provider, or the placeholder when missing.
func (m *Manager) GetProvider(name string) Provider {
	m.mu.RLock()
	p, ok := m.providers[name]
	m.mu.RUnlock()
	if ok {
		return p
	}

	m.mu.Lock()
	if !m.missing[name] {
		m.missing[name] = true
		logging.For("sprites").WithField("sprite", name).Warn("unknown sprite, using placeholder")
	}
	m.mu.Unlock()
	return Static{Sprite: placeholder}
}

// Names returns the registered sprite names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Animated returns every animated provider so the driver can tick them.
func (m *Manager) Animated() []*Animated {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Animated(nil), m.animated...)
}

var placeholder = MustGlyphSprite([]string{
	"?",
}, Style{Alpha: ' ', Foreground: glyph.MustHex("#ff00ff"), Background: glyph.DefaultColor, Scale: 0.5})

// LoadSprites adds every sprite from a YAML catalogue.
func (m *Manager) LoadSprites(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read sprite file: %w", err)
	}

	var file SpriteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse sprite file: %w", err)
	}

	for name, sd := range file.Sprites {
		p, err := BuildProvider(sd)
		if err != nil {
			return fmt.Errorf("sprite %q: %w", name, err)
		}
		m.Add(name, p)
	}
	return nil
}

// BuildProvider turns a sprite definition into a provider.
func BuildProvider(sd SpriteData) (Provider, error) {
	style := Style{Alpha: ' ', Scale: sd.Scale, Palette: make(map[rune]glyph.Color)}
	if sd.Alpha != "" {
		style.Alpha, _ = utf8.DecodeRuneInString(sd.Alpha)
	}
	var err error
	if style.Foreground, err = glyph.Hex(sd.Foreground); err != nil {
		return nil, err
	}
	if style.Background, err = glyph.Hex(sd.Background); err != nil {
		return nil, err
	}
	for k, v := range sd.Palette {
		r, _ := utf8.DecodeRuneInString(k)
		c, err := glyph.Hex(v)
		if err != nil {
			return nil, fmt.Errorf("palette %q: %w", k, err)
		}
		style.Palette[r] = c
	}

	if len(sd.Frames) > 0 {
		frames := make([]Provider, 0, len(sd.Frames))
		for i, variants := range sd.Frames {
			d, err := buildDirectional(variants, style)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
			frames = append(frames, d)
		}
		return NewAnimated(sd.TicksPerFrame, frames...), nil
	}
	return buildDirectional(sd.Variants, style)
}

func buildDirectional(variants [][]string, style Style) (*Directional, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variants")
	}
	if len(variants) > 8 {
		return nil, fmt.Errorf("at most 8 angle variants, got %d", len(variants))
	}
	sprites := make([]Sprite, 0, len(variants))
	for i, rows := range variants {
		s, err := NewGlyphSprite(rows, style)
		if err != nil {
			return nil, fmt.Errorf("variant %d: %w", i, err)
		}
		sprites = append(sprites, s)
	}
	return NewDirectional(sprites...), nil
}
