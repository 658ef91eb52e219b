// Package preview streams presented canvases to browsers over a websocket
// and serves health and metrics next to it.
package preview

import (
	"encoding/json"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-aclock/internal/metrics"
	"github.com/coreman2200/funtimes-aclock/internal/render"
)

const writeWait = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame is one websocket message: the logical canvas, one pixel per cell.
type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	RGBA    []byte `json:"rgba"`
}

// client holds at most one pending frame; a newer frame replaces it.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, 1)}
}

// offer queues b without blocking. Callers hold Server.mu, so no other
// sender races the drain.
func (c *client) offer(b []byte) {
	select {
	case c.send <- b:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	c.send <- b
}

// Server is a display backend that fans frames out to websocket clients.
// Present only queues; each client has its own writer goroutine.
type Server struct {
	mu        sync.Mutex
	clients   map[*client]bool
	frameID   uint64
	last      []byte
	startTime time.Time
	closed    bool

	Driver  string
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func New(log zerolog.Logger, m *metrics.Metrics) *Server {
	return &Server{
		clients:   map[*client]bool{},
		startTime: time.Now(),
		log:       log,
		metrics:   m,
	}
}

// Router wires /ws, /health and, with metrics, /metrics.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.HandleFramesWS)
	r.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
		r.Use(s.metrics.Middleware)
	}
	return r
}

// Present downsamples canvas to logical pixels and broadcasts it.
func (s *Server) Present(canvas *image.RGBA) error {
	scale := canvas.Rect.Dx() / render.Width
	if scale < 1 {
		scale = 1
	}
	w, h := canvas.Rect.Dx()/scale, canvas.Rect.Dy()/scale
	px := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := canvas.PixOffset(x*scale+scale/2, y*scale+scale/2)
			px = append(px, canvas.Pix[i:i+4]...)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.frameID++
	b, err := json.Marshal(Frame{T: time.Now().UnixNano(), FrameID: s.frameID, Width: w, Height: h, RGBA: px})
	if err != nil {
		return err
	}
	s.last = b
	for c := range s.clients {
		c.offer(b)
	}
	return nil
}

// Close disconnects every client.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		s.dropLocked(c)
	}
	return nil
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(c)
}

// dropLocked forgets c and ends its writer.
func (s *Server) dropLocked(c *client) {
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

// writeLoop sends queued frames until the client is dropped, then says
// goodbye and closes the connection.
func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug().Err(err).Msg("write frame")
			s.drop(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = true
	if s.last != nil {
		c.offer(s.last)
	}
	s.mu.Unlock()

	go s.writeLoop(c)
	go func() {
		defer s.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"clients":  len(s.clients),
		"driver":   s.Driver,
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Clients is the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
