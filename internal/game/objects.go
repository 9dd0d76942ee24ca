package game

import (
	"fmt"
	"math"
	"os"

	"glyphcaster/internal/sprite"

	"gopkg.in/yaml.v3"
)

// ObjectFile is the on-disk object placement list.
type ObjectFile struct {
	Objects []ObjectData `yaml:"objects"`
}

// ObjectData places one object. Facing is in degrees, 0 along +x.
type ObjectData struct {
	Name              string  `yaml:"name"`
	Sprite            string  `yaml:"sprite"`
	X                 float64 `yaml:"x"`
	Y                 float64 `yaml:"y"`
	Facing            float64 `yaml:"facing"`
	Solid             bool    `yaml:"solid"`
	Interactable      bool    `yaml:"interactable"`
	Hidden            bool    `yaml:"hidden"`
	MaxRenderDistance float64 `yaml:"max_render_distance"`
	ZOffset           float64 `yaml:"z_offset"`
}

// LoadObjects reads object placements and resolves their sprites through
// the manager. Unknown sprites get the manager's placeholder.
func LoadObjects(filename string, sprites *sprite.Manager) ([]*GameObject, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read object file: %w", err)
	}

	var file ObjectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse object file: %w", err)
	}

	objects := make([]*GameObject, 0, len(file.Objects))
	for i, od := range file.Objects {
		if od.Sprite == "" {
			return nil, fmt.Errorf("object %d (%s) has no sprite", i, od.Name)
		}
		name := od.Name
		if name == "" {
			name = od.Sprite
		}

		o := NewGameObject(name, od.X, od.Y, sprites.GetProvider(od.Sprite))
		o.Orientation = sprite.NormalizeAngle(od.Facing * math.Pi / 180)
		o.Solid = od.Solid
		o.Interactable = od.Interactable
		o.Visible = !od.Hidden
		if od.MaxRenderDistance > 0 {
			o.MaxRenderDistance = od.MaxRenderDistance
		}
		o.ZOffset = od.ZOffset
		objects = append(objects, o)
	}
	return objects, nil
}
