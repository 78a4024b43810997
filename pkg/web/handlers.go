package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-posture/pkg/hub"
)

// handleStatus returns the latest session status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	if s.status == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frame processed yet",
		})
	}
	return c.JSON(s.status)
}

// handleGetEvents returns recent events, optionally limited by ?limit=
func (s *Server) handleGetEvents(c *fiber.Ctx) error {
	events := s.RecentEvents()
	if limit := c.QueryInt("limit", 0); limit > 0 && limit < len(events) {
		events = events[len(events)-limit:]
	}
	return c.JSON(events)
}

// handleConfig returns the active monitor settings
func (s *Server) handleConfig(c *fiber.Ctx) error {
	if s.settings == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(s.settings)
}

// handleIngestStats returns pose ingestion counters
func (s *Server) handleIngestStats(c *fiber.Ctx) error {
	return c.JSON(s.IngestStats())
}

// handleEventsWS streams events to a dashboard
func (s *Server) handleEventsWS(c *websocket.Conn) {
	serveHub(s.eventHub, c)
}

// handleStatusWS streams status snapshots to a dashboard
func (s *Server) handleStatusWS(c *websocket.Conn) {
	serveHub(s.statusHub, c)
}

func serveHub(h *hub.Hub, c *websocket.Conn) {
	client := hub.NewClient(h, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
