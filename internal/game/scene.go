// Package game holds the scene the renderer draws: the map, the viewer and
// the dynamic objects, plus the movement API that mutates them.
package game

import (
	"math"
	"sync"

	"glyphcaster/internal/collision"
	"glyphcaster/internal/config"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/world"

	"github.com/sirupsen/logrus"
)

// Snapshot is an immutable view of the scene for one frame.
type Snapshot struct {
	Map     world.MapProvider
	Camera  Camera
	Objects []ObjectState
}

// Scene guards the map, camera and object list. Movement and object edits
// may come from input and tick goroutines while frames take snapshots.
type Scene struct {
	mu           sync.RWMutex
	world        world.MapProvider
	camera       Camera
	objects      []*GameObject
	collision    *collision.CollisionSystem
	objectRadius float64
}

// NewScene creates a scene on a map with the viewer at camera.
func NewScene(m world.MapProvider, camera Camera, cfg config.MovementConfig) *Scene {
	return &Scene{
		world:        m,
		camera:       camera,
		collision:    collision.NewCollisionSystem(collision.MapChecker{Map: m}),
		objectRadius: cfg.ObjectRadius,
	}
}

// Map returns the current map provider.
func (s *Scene) Map() world.MapProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// SetMap swaps the whole map. A viewer left in an invalid position is moved
// to (spawnX, spawnY).
func (s *Scene) SetMap(m world.MapProvider, spawnX, spawnY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = m
	s.collision.UpdateTileChecker(collision.MapChecker{Map: m})
	if !s.collision.CanOccupy(s.camera.X, s.camera.Y) {
		logging.For("scene").WithFields(logrus.Fields{
			"map": m.Name(),
			"x":   spawnX,
			"y":   spawnY,
		}).Info("viewer displaced by map change, moving to spawn")
		s.camera.SetPosition(spawnX, spawnY)
	}
}

// Camera returns a copy of the viewer pose.
func (s *Scene) Camera() Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// AddObject places an object in the scene.
func (s *Scene) AddObject(o *GameObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, o)
	s.collision.RegisterEntity(collision.NewEntity(o.ID, o.X, o.Y, s.objectRadius, o.Solid))
}

// RemoveObject removes the object with the given ID and reports whether it
// was present.
func (s *Scene) RemoveObject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.objects {
		if o.ID == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.collision.UnregisterEntity(id)
			return true
		}
	}
	return false
}

// UpdateObject applies fn to the object with the given ID under the scene
// lock, keeping collision data in step with the new position.
func (s *Scene) UpdateObject(id string, fn func(o *GameObject)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.objects {
		if o.ID == id {
			fn(o)
			s.collision.UpdateEntity(o.ID, o.X, o.Y)
			if e := s.collision.GetEntityByID(o.ID); e != nil {
				e.Solid = o.Solid
			}
			return true
		}
	}
	return false
}

// Objects returns the current object states.
func (s *Scene) Objects() []ObjectState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objectStates()
}

func (s *Scene) objectStates() []ObjectState {
	states := make([]ObjectState, len(s.objects))
	for i, o := range s.objects {
		states[i] = o.state()
	}
	return states
}

// Snapshot copies everything a frame needs.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Map: s.world, Camera: s.camera, Objects: s.objectStates()}
}

// IsValidPosition is false inside a cell that cannot be walked through
// (including outside the map) and within the object radius of a solid
// object.
func (s *Scene) IsValidPosition(x, y float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collision.CanOccupy(x, y)
}

// MovePlayer moves the viewer along its facing; negative distances move
// backwards. It reports whether the viewer moved.
func (s *Scene) MovePlayer(distance float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	dx, dy := s.camera.Forward()
	return s.tryMove(dx*distance, dy*distance)
}

// StrafePlayer moves the viewer sideways; positive distances move right.
func (s *Scene) StrafePlayer(distance float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	dx, dy := s.camera.Right()
	return s.tryMove(dx*distance, dy*distance)
}

// RotatePlayer turns the viewer; positive angles turn right on screen.
func (s *Scene) RotatePlayer(angle float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Rotate(angle)
}

// tryMove commits the full move when it lands on a valid position, and
// otherwise slides along whichever single axis is still free.
func (s *Scene) tryMove(dx, dy float64) bool {
	x, y := s.camera.X, s.camera.Y
	switch {
	case s.collision.CanOccupy(x+dx, y+dy):
		s.camera.SetPosition(x+dx, y+dy)
	case dx != 0 && s.collision.CanOccupy(x+dx, y):
		s.camera.SetPosition(x+dx, y)
	case dy != 0 && s.collision.CanOccupy(x, y+dy):
		s.camera.SetPosition(x, y+dy)
	default:
		return false
	}
	return true
}

// Interactable returns the nearest interactable object within maxDistance
// that lies inside the field of view with a clear line of sight.
func (s *Scene) Interactable(maxDistance float64) (ObjectState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cam := s.camera
	for _, e := range s.collision.GetNearbyEntities(cam.X, cam.Y, maxDistance, "") {
		o := s.objectByID(e.ID)
		if o == nil || !o.Interactable || !o.Visible {
			continue
		}
		if math.Abs(cam.AngleTo(o.X, o.Y)) > cam.FOV/2 {
			continue
		}
		if !s.collision.CheckLineOfSight(cam.X, cam.Y, o.X, o.Y) {
			continue
		}
		return o.state(), true
	}
	return ObjectState{}, false
}

func (s *Scene) objectByID(id string) *GameObject {
	for _, o := range s.objects {
		if o.ID == id {
			return o
		}
	}
	return nil
}
