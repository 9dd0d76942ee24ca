package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all renderer configuration values
type Config struct {
	Display    DisplayConfig    `yaml:"display" toml:"display"`
	Camera     CameraConfig     `yaml:"camera" toml:"camera"`
	Movement   MovementConfig   `yaml:"movement" toml:"movement"`
	Render     RenderConfig     `yaml:"render" toml:"render"`
	Background BackgroundConfig `yaml:"background" toml:"background"`
	Animation  AnimationConfig  `yaml:"animation" toml:"animation"`
	Assets     AssetsConfig     `yaml:"assets" toml:"assets"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Stream     StreamConfig     `yaml:"stream" toml:"stream"`
}

// DisplayConfig sizes the glyph grid. Terminal sinks override it with the
// real terminal size.
type DisplayConfig struct {
	Columns     int     `yaml:"columns" toml:"columns"`
	Rows        int     `yaml:"rows" toml:"rows"`
	WindowTitle string  `yaml:"window_title" toml:"window_title"`
	FontSize    float64 `yaml:"font_size" toml:"font_size"`
	Resizable   bool    `yaml:"resizable" toml:"resizable"`
}

type CameraConfig struct {
	FieldOfView float64 `yaml:"field_of_view" toml:"field_of_view"` // radians
	StartAngle  float64 `yaml:"start_angle" toml:"start_angle"`
}

type MovementConfig struct {
	MoveSpeed     float64 `yaml:"move_speed" toml:"move_speed"`         // cells per key press
	RotationSpeed float64 `yaml:"rotation_speed" toml:"rotation_speed"` // radians per key press
	ObjectRadius  float64 `yaml:"object_radius" toml:"object_radius"`   // collision radius of solid objects
	InteractRange float64 `yaml:"interact_range" toml:"interact_range"`
}

// RenderConfig holds the compositor thresholds.
type RenderConfig struct {
	EdgeThreshold   float64 `yaml:"edge_threshold" toml:"edge_threshold"`
	EdgeGlyph       string  `yaml:"edge_glyph" toml:"edge_glyph"`
	EdgeColor       string  `yaml:"edge_color" toml:"edge_color"`
	DimDistance     float64 `yaml:"dim_distance" toml:"dim_distance"`
	FarDistance     float64 `yaml:"far_distance" toml:"far_distance"`
	DimFactor       float64 `yaml:"dim_factor" toml:"dim_factor"`
	DarkSideFactor  float64 `yaml:"dark_side_factor" toml:"dark_side_factor"`
	TextureWidth    int     `yaml:"texture_width" toml:"texture_width"`
	TextureHeight   int     `yaml:"texture_height" toml:"texture_height"`
	SpriteFOVMargin float64 `yaml:"sprite_fov_margin" toml:"sprite_fov_margin"`
	SpriteAspect    float64 `yaml:"sprite_aspect" toml:"sprite_aspect"`
	ColumnWorkers   int     `yaml:"column_workers" toml:"column_workers"` // 0 casts on the render goroutine
}

// BackgroundConfig selects and tunes the sky layer.
type BackgroundConfig struct {
	Variant string `yaml:"variant" toml:"variant"` // solid, clouds, starfield, daynight
	Color   string `yaml:"color" toml:"color"`
	Glyph   string `yaml:"glyph" toml:"glyph"`
	Seed    int64  `yaml:"seed" toml:"seed"`

	SkyColor     string  `yaml:"sky_color" toml:"sky_color"`
	HorizonColor string  `yaml:"horizon_color" toml:"horizon_color"`
	CloudColor   string  `yaml:"cloud_color" toml:"cloud_color"`
	CloudScale   float64 `yaml:"cloud_scale" toml:"cloud_scale"`
	CloudSpeed   float64 `yaml:"cloud_speed" toml:"cloud_speed"`
	CloudCover   float64 `yaml:"cloud_cover" toml:"cloud_cover"`

	StarDensity float64 `yaml:"star_density" toml:"star_density"`
	ShowMoon    bool    `yaml:"show_moon" toml:"show_moon"`

	StartHour       float64 `yaml:"start_hour" toml:"start_hour"`
	MinutesPerTick  float64 `yaml:"minutes_per_tick" toml:"minutes_per_tick"`
	WeatherMinTicks int     `yaml:"weather_min_ticks" toml:"weather_min_ticks"`
	WeatherMaxTicks int     `yaml:"weather_max_ticks" toml:"weather_max_ticks"`
	FadeTicks       int     `yaml:"fade_ticks" toml:"fade_ticks"`
}

type AnimationConfig struct {
	TickHz  float64 `yaml:"tick_hz" toml:"tick_hz"`
	FrameHz float64 `yaml:"frame_hz" toml:"frame_hz"`
	Workers int     `yaml:"workers" toml:"workers"`
}

// AssetsConfig points at the data files the demo loads.
type AssetsConfig struct {
	Tiles    string `yaml:"tiles" toml:"tiles"`
	Map      string `yaml:"map" toml:"map"`
	Textures string `yaml:"textures" toml:"textures"`
	Images   string `yaml:"images" toml:"images"`
	Script   string `yaml:"script" toml:"script"`
	Sprites  string `yaml:"sprites" toml:"sprites"`
	Objects  string `yaml:"objects" toml:"objects"`
	WatchMap bool   `yaml:"watch_map" toml:"watch_map"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
	JSON  bool   `yaml:"json" toml:"json"`
}

type StreamConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
	Path string `yaml:"path" toml:"path"`
}

// DefaultConfig returns a configuration with every value populated.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Columns:     120,
			Rows:        40,
			WindowTitle: "glyphcaster",
			FontSize:    14,
			Resizable:   true,
		},
		Camera: CameraConfig{
			FieldOfView: math.Pi / 3,
		},
		Movement: MovementConfig{
			MoveSpeed:     0.25,
			RotationSpeed: math.Pi / 32,
			ObjectRadius:  0.35,
			InteractRange: 1.5,
		},
		Render: RenderConfig{
			EdgeThreshold:   0.5,
			EdgeGlyph:       "│",
			EdgeColor:       "#202020",
			DimDistance:     8,
			FarDistance:     16,
			DimFactor:       0.45,
			DarkSideFactor:  0.7,
			TextureWidth:    16,
			TextureHeight:   16,
			SpriteFOVMargin: 0.1,
			SpriteAspect:    2.0,
			ColumnWorkers:   4,
		},
		Background: BackgroundConfig{
			Variant:         "solid",
			Color:           "#000000",
			Glyph:           " ",
			Seed:            1,
			SkyColor:        "#3a6ea5",
			HorizonColor:    "#a9c8e8",
			CloudColor:      "#f0f0f0",
			CloudScale:      0.08,
			CloudSpeed:      0.02,
			CloudCover:      0.55,
			StarDensity:     0.04,
			ShowMoon:        true,
			StartHour:       8,
			MinutesPerTick:  2,
			WeatherMinTicks: 200,
			WeatherMaxTicks: 600,
			FadeTicks:       40,
		},
		Animation: AnimationConfig{
			TickHz:  10,
			FrameHz: 30,
			Workers: 4,
		},
		Assets: AssetsConfig{
			Tiles:    "assets/tiles.yaml",
			Map:      "assets/maps/demo.map",
			Textures: "assets/textures.yaml",
			Sprites:  "assets/sprites.yaml",
			Objects:  "assets/objects.yaml",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "glyphcaster.log",
		},
		Stream: StreamConfig{
			Path: "/frames",
		},
	}
}

var GlobalConfig *Config

// LoadConfig loads the configuration on top of DefaultConfig. Files ending in
// .toml are decoded as TOML, everything else as YAML.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		err = toml.Unmarshal(data, config)
	default:
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}

	// Set global config for easy access
	GlobalConfig = config

	return config, nil
}

// MustLoadConfig loads the configuration and panics on error
func MustLoadConfig(filename string) *Config {
	config, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return config
}

// Validate rejects values the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Display.Columns <= 0 || c.Display.Rows <= 0 {
		return fmt.Errorf("display size must be positive, got %dx%d", c.Display.Columns, c.Display.Rows)
	}
	if c.Camera.FieldOfView <= 0 || c.Camera.FieldOfView >= math.Pi {
		return fmt.Errorf("field_of_view must be in (0, pi), got %f", c.Camera.FieldOfView)
	}
	if c.Render.TextureWidth <= 0 || c.Render.TextureHeight <= 0 {
		return fmt.Errorf("texture size must be positive, got %dx%d", c.Render.TextureWidth, c.Render.TextureHeight)
	}
	if c.Render.FarDistance < c.Render.DimDistance {
		return fmt.Errorf("far_distance (%f) must not be below dim_distance (%f)", c.Render.FarDistance, c.Render.DimDistance)
	}
	if c.Animation.TickHz <= 0 || c.Animation.FrameHz <= 0 {
		return fmt.Errorf("tick_hz and frame_hz must be positive")
	}
	if c.Background.WeatherMaxTicks < c.Background.WeatherMinTicks {
		return fmt.Errorf("weather_max_ticks must not be below weather_min_ticks")
	}
	return nil
}

// Helper functions for easy access to commonly used values
func (c *Config) GetColumns() int {
	return c.Display.Columns
}

func (c *Config) GetRows() int {
	return c.Display.Rows
}

func (c *Config) GetMoveSpeed() float64 {
	return c.Movement.MoveSpeed
}

func (c *Config) GetRotSpeed() float64 {
	return c.Movement.RotationSpeed
}

func (c *Config) GetCameraFOV() float64 {
	return c.Camera.FieldOfView
}

// GetEdgeGlyph returns the first rune of the configured edge glyph.
func (c *Config) GetEdgeGlyph() rune {
	for _, r := range c.Render.EdgeGlyph {
		return r
	}
	return '│'
}

// GetBackgroundGlyph returns the first rune of the configured background glyph.
func (c *Config) GetBackgroundGlyph() rune {
	for _, r := range c.Background.Glyph {
		return r
	}
	return ' '
}
