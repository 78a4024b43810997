package web

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

// IngestStats counts pose traffic from detectors
type IngestStats struct {
	Sources          int    `json:"sources"`
	MessagesReceived uint64 `json:"messages_received"`
	PosesReceived    uint64 `json:"poses_received"`
	ParseErrors      uint64 `json:"parse_errors"`
}

// source is one connected detector
type source struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time

	mu sync.Mutex
}

// send writes a message to the detector
func (src *source) send(msg *protocol.Message) error {
	src.mu.Lock()
	defer src.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return src.Conn.WriteMessage(websocket.TextMessage, data)
}

// ingest accepts pose streams on /ws/pose
type ingest struct {
	srv    *Server
	logger *slog.Logger

	mu      sync.RWMutex
	sources map[string]*source

	messagesReceived atomic.Uint64
	posesReceived    atomic.Uint64
	parseErrors      atomic.Uint64
}

func newIngest(srv *Server) *ingest {
	return &ingest{
		srv:     srv,
		logger:  srv.logger.With("handler", "pose"),
		sources: make(map[string]*source),
	}
}

func (in *ingest) register(app *fiber.App) {
	app.Get("/ws/pose", websocket.New(in.handle))
	app.Get("/ws/pose/:id", websocket.New(in.handle))
}

// handle reads pose messages until the detector disconnects
func (in *ingest) handle(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.New().String()
	}

	src := &source{ID: id, Conn: c, Connected: time.Now()}

	in.mu.Lock()
	in.sources[id] = src
	count := len(in.sources)
	in.mu.Unlock()
	in.logger.Info("detector connected", "source", id, "sources", count)

	defer func() {
		in.mu.Lock()
		delete(in.sources, id)
		count := len(in.sources)
		in.mu.Unlock()
		in.logger.Info("detector disconnected", "source", id, "sources", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			in.logger.Debug("detector read error", "source", id, "error", err)
			return
		}
		in.messagesReceived.Add(1)
		in.handleMessage(src, data)
	}
}

func (in *ingest) handleMessage(src *source, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		in.parseErrors.Add(1)
		in.logger.Warn("parse error", "source", src.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypePose:
		pd, err := msg.GetPoseData()
		if err != nil {
			in.parseErrors.Add(1)
			in.logger.Warn("invalid pose data", "source", src.ID, "error", err)
			return
		}
		in.posesReceived.Add(1)
		if cb := in.srv.OnPose; cb != nil {
			cb(src.ID, msg, pd)
		}

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return
		}
		pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
		if err != nil {
			return
		}
		if err := src.send(pong); err != nil {
			in.logger.Debug("pong failed", "source", src.ID, "error", err)
		}

	default:
		in.logger.Debug("ignoring message", "source", src.ID, "type", msg.Type)
	}
}

func (in *ingest) stats() IngestStats {
	in.mu.RLock()
	n := len(in.sources)
	in.mu.RUnlock()
	return IngestStats{
		Sources:          n,
		MessagesReceived: in.messagesReceived.Load(),
		PosesReceived:    in.posesReceived.Load(),
		ParseErrors:      in.parseErrors.Load(),
	}
}
