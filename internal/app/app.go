// Package app wires the scene, renderer, animation driver and sinks into
// the interactive viewer loop.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"glyphcaster/internal/animation"
	"glyphcaster/internal/background"
	"glyphcaster/internal/config"
	"glyphcaster/internal/game"
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/render"
	"glyphcaster/internal/sink"
	"glyphcaster/internal/sprite"
	"glyphcaster/internal/texture"
	"glyphcaster/internal/threading/rendering"
	"glyphcaster/internal/world"
)

const alertInterval = 5 * time.Second

// App owns one scene and redraws it whenever input, animation or a map
// reload changes what is visible.
type App struct {
	cfg      *config.Config
	scene    *game.Scene
	renderer *render.Renderer
	driver   *animation.Driver
	textures *texture.Registry
	columns  *rendering.ParallelRenderer

	stream  *sink.Stream
	maps    <-chan *world.MapData
	closers []io.Closer

	buf    *glyph.Buffer
	frames uint64
	log    *logrus.Entry
}

// New assembles an App from already built parts. textures may be nil.
func New(cfg *config.Config, scene *game.Scene, renderer *render.Renderer, driver *animation.Driver, textures *texture.Registry) *App {
	return &App{
		cfg:      cfg,
		scene:    scene,
		renderer: renderer,
		driver:   driver,
		textures: textures,
		buf:      glyph.NewBuffer(0, 0),
		log:      logging.For("app"),
	}
}

// Load builds every part from the asset files named in cfg.
func Load(cfg *config.Config) (*App, error) {
	log := logging.For("app")

	tiles := world.NewTileManager()
	if err := tiles.LoadTileConfig(cfg.Assets.Tiles); err != nil {
		return nil, err
	}
	loader := world.NewMapLoader(tiles)
	md, err := loader.LoadMap(cfg.Assets.Map)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	patterns := texture.NewPatternProvider()
	if cfg.Assets.Textures != "" {
		if err := patterns.LoadPatterns(cfg.Assets.Textures); err != nil {
			return nil, err
		}
	}
	registry := texture.NewRegistry(patterns)
	if cfg.Assets.Images != "" {
		registry.Add(texture.NewImageProvider(cfg.Assets.Images))
	}
	if cfg.Assets.Script != "" {
		sp, err := texture.LoadScriptProvider(cfg.Assets.Script)
		if err != nil {
			return nil, err
		}
		registry.Add(sp)
		closers = append(closers, sp)
	}
	loaded := false
	defer func() {
		if loaded {
			return
		}
		for _, c := range closers {
			c.Close()
		}
	}()

	sprites := sprite.NewManager()
	if cfg.Assets.Sprites != "" {
		if err := sprites.LoadSprites(cfg.Assets.Sprites); err != nil {
			return nil, err
		}
	}

	camera := game.NewCamera(md.StartX, md.StartY, cfg.Camera.StartAngle, cfg.Camera.FieldOfView)
	scene := game.NewScene(md.Map, camera, cfg.Movement)
	if cfg.Assets.Objects != "" {
		objects, err := game.LoadObjects(cfg.Assets.Objects, sprites)
		if err != nil {
			return nil, err
		}
		for _, o := range objects {
			scene.AddObject(o)
		}
	}

	bg, err := background.New(cfg.Background, cfg.Camera.FieldOfView)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewRenderer(cfg, registry, bg)
	if err != nil {
		return nil, err
	}

	var columns *rendering.ParallelRenderer
	if cfg.Render.ColumnWorkers > 0 {
		columns = rendering.NewParallelRenderer(cfg.Render.ColumnWorkers)
		renderer.SetParallel(columns)
	}

	driver := animation.NewDriver(cfg.Animation, renderer.Monitor())
	if t, ok := bg.(animation.Ticker); ok {
		driver.Add(t)
	}
	for _, anim := range sprites.Animated() {
		driver.Add(anim)
	}

	a := New(cfg, scene, renderer, driver, registry)
	a.closers = closers
	a.columns = columns

	if cfg.Assets.WatchMap {
		w, err := world.NewWatcher(cfg.Assets.Map, loader)
		if err != nil {
			log.WithError(err).Warn("map watching disabled")
		} else {
			a.maps = w.Updates()
			a.closers = append(a.closers, w)
		}
	}

	log.WithFields(logrus.Fields{
		"map":        md.Map.Name(),
		"size":       fmt.Sprintf("%dx%d", md.Map.Width(), md.Map.Height()),
		"objects":    len(scene.Objects()),
		"background": cfg.Background.Variant,
	}).Info("scene loaded")
	loaded = true
	return a, nil
}

// Scene returns the scene being viewed.
func (a *App) Scene() *game.Scene {
	return a.scene
}

// SetStream mirrors every presented frame to websocket viewers.
func (a *App) SetStream(s *sink.Stream) {
	a.stream = s
}

// WatchMaps replaces the map with each value received from ch.
func (a *App) WatchMaps(ch <-chan *world.MapData) {
	a.maps = ch
}

// Handle applies one command and reports whether the loop should stop.
func (a *App) Handle(cmd sink.Command) bool {
	mv := a.cfg.Movement
	switch cmd {
	case sink.CommandForward:
		a.scene.MovePlayer(mv.MoveSpeed)
	case sink.CommandBackward:
		a.scene.MovePlayer(-mv.MoveSpeed)
	case sink.CommandTurnLeft:
		a.scene.RotatePlayer(-mv.RotationSpeed)
	case sink.CommandTurnRight:
		a.scene.RotatePlayer(mv.RotationSpeed)
	case sink.CommandStrafeLeft:
		a.scene.StrafePlayer(-mv.MoveSpeed)
	case sink.CommandStrafeRight:
		a.scene.StrafePlayer(mv.MoveSpeed)
	case sink.CommandInteract:
		if obj, ok := a.scene.Interactable(mv.InteractRange); ok {
			a.log.WithFields(logrus.Fields{"object": obj.ID, "x": obj.X, "y": obj.Y}).Info("interact")
		}
	case sink.CommandQuit:
		return true
	}
	return false
}

// Frame composes the scene at the display size and presents it.
func (a *App) Frame(d sink.Display) error {
	w, h := d.Size()
	if w != a.buf.Width() || h != a.buf.Height() {
		a.buf.Resize(w, h)
	}
	a.renderer.Render(a.buf, a.scene.Snapshot())
	a.frames++

	if err := d.Present(a.buf); err != nil {
		return err
	}
	if a.stream != nil {
		if err := a.stream.Publish(a.buf); err != nil {
			a.log.WithError(err).Warn("stream publish failed")
		}
	}
	return nil
}

// Frames returns the number of frames composed so far.
func (a *App) Frames() uint64 {
	return a.frames
}

// Run drives the viewer until ctx is cancelled, the display closes its
// command channel or a quit command arrives. Frames are composed only when
// something changed, at most FrameHz times per second.
func (a *App) Run(ctx context.Context, d sink.Display) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := a.driver.Run(ctx); err != nil {
			a.log.WithError(err).Error("animation driver stopped")
		}
	}()

	frameTicker := time.NewTicker(time.Duration(float64(time.Second) / a.cfg.Animation.FrameHz))
	defer frameTicker.Stop()
	alertTicker := time.NewTicker(alertInterval)
	defer alertTicker.Stop()

	if err := a.Frame(d); err != nil {
		return err
	}

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-d.Commands():
			if !ok || a.Handle(cmd) {
				return nil
			}
			dirty = true
		case <-a.driver.Redraw():
			dirty = true
		case md, ok := <-a.maps:
			if !ok {
				a.maps = nil
				continue
			}
			a.scene.SetMap(md.Map, md.StartX, md.StartY)
			if a.textures != nil {
				a.textures.Forget()
			}
			a.log.WithField("map", md.Map.Name()).Info("map reloaded")
			dirty = true
		case <-frameTicker.C:
			if !dirty {
				continue
			}
			if err := a.Frame(d); err != nil {
				return err
			}
			dirty = false
		case <-alertTicker.C:
			monitor := a.renderer.Monitor()
			alerts := monitor.CheckPerformanceAlerts(a.cfg.Animation.FrameHz)
			for _, alert := range alerts {
				a.log.WithFields(logrus.Fields{
					"type":      alert.Type,
					"value":     alert.Value,
					"threshold": alert.Threshold,
				}).Warn(alert.Message)
			}
			if len(alerts) > 0 {
				a.log.WithFields(monitor.Fields()).Debug("render stats")
			}
		}
	}
}

// Close stops the driver and releases watchers and scripts.
func (a *App) Close() {
	a.driver.Close()
	if a.columns != nil {
		a.columns.Stop()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
}
