// Package web provides the live classroom dashboard: a JSON API over the
// pipeline state, websocket streams of status updates and annotated camera
// frames, and the Prometheus scrape endpoint.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-classroom/pkg/aggregate"
	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/hub"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
)

// Controller is the part of the pipeline the dashboard can observe and stop.
type Controller interface {
	State() pipeline.State
	RunID() string
	Stop()
}

// Status is the payload of /api/status and every /ws/status message.
type Status struct {
	State string               `json:"state"`
	RunID string               `json:"run_id,omitempty"`
	Frame *pipeline.FrameState `json:"frame,omitempty"`
}

// Config holds dashboard settings.
type Config struct {
	Port          string        `json:"port"`
	StaticDir     string        `json:"static_dir"`     // Served at / when set
	RecentLimit   int           `json:"recent_limit"`   // Default page size of /api/records
	FrameInterval time.Duration `json:"frame_interval"` // Minimum spacing of camera frames
}

// DefaultConfig returns dashboard defaults: port 8080, five camera frames per second.
func DefaultConfig() Config {
	return Config{
		Port:          "8080",
		RecentLimit:   100,
		FrameInterval: 200 * time.Millisecond,
	}
}

// Server is the web dashboard server. It implements pipeline.Display.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	mu        sync.RWMutex
	frame     *pipeline.FrameState
	lastFrame time.Time

	statusHub *hub.Hub
	cameraHub *hub.Hub

	// Controller reports the pipeline state and handles POST /api/stop.
	Controller Controller

	// History serves /api/records.
	History aggregate.History

	// Metrics is mounted at /metrics.
	Metrics http.Handler

	// EncodeFrame renders a frame for /ws/camera. Frames are only encoded
	// while a camera client is connected.
	EncodeFrame func(frame camera.Frame, state pipeline.FrameState) ([]byte, error)
}

// NewServer creates a new web dashboard server
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultConfig().RecentLimit
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger.With("component", "web"),
		statusHub: hub.New("status", logger),
		cameraHub: hub.New("camera", logger),
	}
	s.statusHub.OnConnect = s.greet

	app := fiber.New(fiber.Config{
		AppName:               "Classroom Monitor",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/records", s.handleRecords)
	api.Post("/stop", s.handleStop)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start runs the hubs and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.logger.Warn("shutdown failed", "error", err)
		}
	}()

	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.cfg.Port)
	if err := s.app.Listen(":" + s.cfg.Port); err != nil {
		return fmt.Errorf("web: listen on %s: %w", s.cfg.Port, err)
	}
	return nil
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Show records the frame state and pushes it to dashboard clients.
func (s *Server) Show(frame camera.Frame, state pipeline.FrameState) error {
	s.mu.Lock()
	s.frame = &state
	s.mu.Unlock()

	if err := s.statusHub.BroadcastJSON(s.status()); err != nil {
		return fmt.Errorf("web: encode status: %w", err)
	}

	if s.EncodeFrame == nil || s.cameraHub.ClientCount() == 0 || !s.frameDue(time.Now()) {
		return nil
	}
	jpeg, err := s.EncodeFrame(frame, state)
	if err != nil {
		return fmt.Errorf("web: encode frame: %w", err)
	}
	s.cameraHub.BroadcastBinary(jpeg)
	return nil
}

func (s *Server) frameDue(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastFrame) < s.cfg.FrameInterval {
		return false
	}
	s.lastFrame = now
	return true
}

func (s *Server) status() Status {
	st := Status{State: "idle"}
	if s.Controller != nil {
		st.State = s.Controller.State().String()
		st.RunID = s.Controller.RunID()
	}
	s.mu.RLock()
	st.Frame = s.frame
	s.mu.RUnlock()
	return st
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
