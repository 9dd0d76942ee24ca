package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"
)

const (
	clientSendBuffer = 8
	writeWait        = 5 * time.Second
)

// FrameMessage is the JSON document sent to stream viewers for every frame.
type FrameMessage struct {
	Seq    uint64   `json:"seq"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Lines  []string `json:"lines"`
}

type client struct {
	ws   *websocket.Conn
	send chan []byte
}

// Stream broadcasts frames to websocket viewers. Viewers that fall behind
// are disconnected rather than allowed to stall the renderer.
type Stream struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*client]struct{}
	seq      atomic.Uint64
	log      *logrus.Entry
}

// NewStream creates a hub with no viewers.
func NewStream() *Stream {
	return &Stream{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
		log:     logging.For("stream"),
	}
}

// ServeHTTP upgrades the request and registers the viewer.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("upgrade failed")
		return
	}

	c := &client{ws: ws, send: make(chan []byte, clientSendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "viewers": n}).Info("viewer connected")

	go c.writePump()
	go s.readPump(c)
}

// readPump discards viewer messages and unregisters the viewer on close.
func (s *Stream) readPump(c *client) {
	defer s.unregister(c)

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.WithError(err).Debug("viewer read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	defer c.ws.Close()

	for message := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		w, err := c.ws.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		if _, err := w.Write(message); err != nil {
			return
		}
		if err := w.Close(); err != nil {
			return
		}
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

func (s *Stream) unregister(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	n := len(s.clients)
	s.mu.Unlock()
	if ok {
		close(c.send)
		s.log.WithField("viewers", n).Info("viewer disconnected")
	}
}

// Publish sends the buffer's text to every viewer.
func (s *Stream) Publish(b *glyph.Buffer) error {
	msg := FrameMessage{
		Seq:    s.seq.Add(1),
		Width:  b.Width(),
		Height: b.Height(),
		Lines:  b.Lines(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var slow []*client
	s.mu.Lock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.Unlock()

	for _, c := range slow {
		s.unregister(c)
	}
	return nil
}

// Viewers returns the number of connected viewers.
func (s *Stream) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every viewer.
func (s *Stream) Close() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.unregister(c)
	}
}

// ListenAndServe serves the stream at path until ctx is cancelled.
func (s *Stream) ListenAndServe(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s)
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.log.WithFields(logrus.Fields{"addr": addr, "path": path}).Info("stream listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		s.Close()
		return srv.Shutdown(shutdownCtx)
	}
}
