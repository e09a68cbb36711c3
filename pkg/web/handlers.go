package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-classroom/pkg/hub"
)

const maxRecordsLimit = 1000

// handleStatus returns the pipeline state and the last processed frame
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleRecords returns the most recent aggregate records, newest first
func (s *Server) handleRecords(c *fiber.Ctx) error {
	if s.History == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "record history not configured",
		})
	}

	limit := c.QueryInt("limit", s.cfg.RecentLimit)
	if limit <= 0 || limit > maxRecordsLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 1000",
		})
	}

	recs, err := s.History.Recent(limit)
	if err != nil {
		s.logger.Error("query records failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(recs)
}

// handleStop asks the pipeline to finish after the current frame
func (s *Server) handleStop(c *fiber.Ctx) error {
	if s.Controller == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "pipeline not attached",
		})
	}
	s.logger.Info("stop requested from dashboard", "ip", c.IP())
	s.Controller.Stop()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "stopping"})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	if s.Metrics == nil {
		return fiber.ErrNotFound
	}
	return adaptor.HTTPHandler(s.Metrics)(c)
}

// greet sends the current status to a client that just joined /ws/status
func (s *Server) greet(c *hub.Client) {
	data, err := json.Marshal(s.status())
	if err != nil {
		return
	}
	c.Send(hub.NewJSONMessage(data))
}

// handleStatusWS streams a Status for every processed frame
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if client := hub.NewClient(s.statusHub, c); client != nil {
		client.Run()
	}
}

// handleCameraWS streams annotated JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	if client := hub.NewClient(s.cameraHub, c); client != nil {
		client.Run()
	}
}
