package world

import (
	"path/filepath"
	"sync"
	"time"

	"glyphcaster/internal/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const defaultReloadDebounce = 100 * time.Millisecond

// Watcher reloads a map file whenever it changes on disk and publishes the
// new map. A reload that fails is logged and the previous map stays current.
type Watcher struct {
	mu sync.Mutex

	watcher  *fsnotify.Watcher
	loader   *MapLoader
	path     string
	debounce time.Duration

	updates chan *MapData
	log     *logrus.Entry

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher starts watching mapPath. Its parent directory is watched so
// editors that replace the file by rename are still seen.
func NewWatcher(mapPath string, loader *MapLoader) (*Watcher, error) {
	absPath, err := filepath.Abs(mapPath)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		loader:   loader,
		path:     absPath,
		debounce: defaultReloadDebounce,
		updates:  make(chan *MapData, 1),
		log:      logging.For("map_watcher").WithField("path", absPath),
		closeCh:  make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Updates delivers freshly loaded maps. Only the newest pending map is kept.
func (w *Watcher) Updates() <-chan *MapData {
	return w.updates
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	close(w.updates)
	return w.watcher.Close()
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	var pending <-chan time.Time
	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watch error")

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	data, err := w.loader.LoadMap(w.path)
	if err != nil {
		w.log.WithError(err).Warn("map reload failed, keeping previous map")
		return
	}

	// Drop a stale update nobody consumed yet
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- data:
		w.log.Info("map reloaded")
	default:
	}
}
