// Package web serves the posture monitor over HTTP: pose ingestion from the
// detector, a status API, and live event and status streams for dashboards.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-posture/pkg/hub"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

// DefaultEventBuffer is how many recent events /api/events returns.
const DefaultEventBuffer = 200

// Option configures a Server
type Option func(*Server)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEventBuffer sets how many recent events are kept for /api/events
func WithEventBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.eventCap = n
		}
	}
}

// WithSettings sets the value served by /api/config
func WithSettings(v interface{}) Option {
	return func(s *Server) {
		s.settings = v
	}
}

// PoseHandler receives each pose message from the detector
type PoseHandler func(source string, msg *protocol.Message, data *protocol.PoseData)

// Server is the posture web server
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	// Latest status snapshot
	status   *protocol.StatusData
	statusMu sync.RWMutex

	// Recent events, oldest first
	events   []protocol.EventData
	eventCap int
	eventsMu sync.RWMutex

	settings interface{}

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	eventHub  *hub.Hub

	ingest *ingest

	// OnPose is called for every pose message received on /ws/pose
	OnPose PoseHandler
}

// NewServer creates a new web server listening on port
func NewServer(port string, opts ...Option) *Server {
	s := &Server{
		port:     port,
		logger:   slog.Default(),
		eventCap: DefaultEventBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.events = make([]protocol.EventData, 0, s.eventCap)
	s.statusHub = hub.New("status", hub.WithReplayLast(), hub.WithLogger(s.logger))
	s.eventHub = hub.New("events", hub.WithLogger(s.logger))
	s.ingest = newIngest(s)

	app := fiber.New(fiber.Config{
		AppName:               "Posture Monitor",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleGetEvents)
	api.Get("/config", s.handleConfig)
	api.Get("/ingest", s.handleIngestStats)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	s.ingest.register(app)
	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs until ctx is done and serves HTTP until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("web server listening", "addr", "http://localhost:"+s.port)

	go s.statusHub.Run(ctx)
	go s.eventHub.Run(ctx)

	return s.app.Listen(":" + s.port)
}

// PublishEvent records an event and broadcasts it to /ws/events clients
func (s *Server) PublishEvent(_ context.Context, e protocol.EventData) error {
	s.eventsMu.Lock()
	if len(s.events) == s.eventCap {
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
	s.events = append(s.events, e)
	s.eventsMu.Unlock()

	msg, err := protocol.NewMessageAt(protocol.TypeEvent, e, e.At)
	if err != nil {
		return err
	}
	return s.eventHub.BroadcastMessage(msg)
}

// PublishStatus stores the latest status and broadcasts it to /ws/status clients
func (s *Server) PublishStatus(_ context.Context, st protocol.StatusData) error {
	s.statusMu.Lock()
	s.status = &st
	s.statusMu.Unlock()

	msg, err := protocol.NewMessage(protocol.TypeStatus, st)
	if err != nil {
		return err
	}
	return s.statusHub.BroadcastMessage(msg)
}

// RecentEvents returns a copy of the buffered events, oldest first
func (s *Server) RecentEvents() []protocol.EventData {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return append([]protocol.EventData(nil), s.events...)
}

// IngestStats returns pose ingestion counters
func (s *Server) IngestStats() IngestStats {
	return s.ingest.stats()
}

// StatusHub returns the status hub for external use
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// EventHub returns the event hub for external use
func (s *Server) EventHub() *hub.Hub {
	return s.eventHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
