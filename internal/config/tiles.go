package config

// TileConfig is the root of a tile legend file.
type TileConfig struct {
	TileData map[string]TileData `yaml:"tiles"`
}

// TileData describes one tile as written in the legend file. Pointer fields
// distinguish "unset" from the zero value.
type TileData struct {
	Name                string   `yaml:"name"`
	Letter              string   `yaml:"letter"`
	Wall                bool     `yaml:"wall"`
	WalkThrough         *bool    `yaml:"walk_through,omitempty"`
	Transparent         bool     `yaml:"transparent"`
	Glyph               string   `yaml:"glyph"`
	ColorLight          string   `yaml:"color_light"`
	ColorDark           string   `yaml:"color_dark"`
	BackgroundLight     string   `yaml:"background_light"`
	BackgroundDark      string   `yaml:"background_dark"`
	Height              *float64 `yaml:"height,omitempty"`
	Texture             string   `yaml:"texture"`
	TextureInstructions string   `yaml:"texture_instructions"`

	Ceiling                bool     `yaml:"ceiling"`
	CeilingHeight          *float64 `yaml:"ceiling_height,omitempty"`
	CeilingGlyph           string   `yaml:"ceiling_glyph"`
	CeilingColorLight      string   `yaml:"ceiling_color_light"`
	CeilingColorDark       string   `yaml:"ceiling_color_dark"`
	CeilingBackgroundLight string   `yaml:"ceiling_background_light"`
	CeilingBackgroundDark  string   `yaml:"ceiling_background_dark"`
}
