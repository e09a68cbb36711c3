package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/teslashibe/go-classroom/pkg/aggregate"
	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/camera/capture"
	"github.com/teslashibe/go-classroom/pkg/detection/yolo"
	"github.com/teslashibe/go-classroom/pkg/metrics"
	"github.com/teslashibe/go-classroom/pkg/overlay"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
	"github.com/teslashibe/go-classroom/pkg/web"
)

// App is the classroom monitor orchestrator.
// It owns every component and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger
	runID  string

	detector *yolo.Detector
	sink     aggregate.MultiSink
	recent   *aggregate.MemorySink
	history  aggregate.History
	metrics  *metrics.Metrics

	window    *overlay.Window
	webServer *web.Server
	pipeline  *pipeline.Pipeline
}

// New validates cfg and creates the app. Nothing is opened yet.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// The YOLO decoder uses the same threshold and classes as the adapter.
	cfg.Model.ConfidenceThresh = float32(cfg.Pipeline.Detection.ConfidenceThresh)
	if ids, err := yolo.ClassIDs(cfg.Pipeline.Detection.Classes); err == nil {
		cfg.Model.Classes = ids
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	return &App{
		config: cfg,
		runID:  runID,
		logger: logger.With("run_id", runID),
	}, nil
}

// RunID identifies this run in logs, the dashboard and database rows.
func (a *App) RunID() string { return a.runID }

// Init loads the model, opens the record sinks and prepares the displays.
// Call this after New and before Run. The camera is opened by Run.
func (a *App) Init() error {
	a.logger.Info("classroom monitor starting",
		"camera", a.config.Camera.Describe(),
		"model", a.config.Model.ModelPath,
		"log_file", a.config.LogFile)

	det, err := yolo.New(a.config.Model, a.logger)
	if err != nil {
		return fmt.Errorf("load detector: %w", err)
	}
	a.detector = det

	if err := a.initSinks(); err != nil {
		a.detector.Close()
		return err
	}

	a.metrics = metrics.New()
	a.initDisplays()

	p, err := pipeline.New(a.config.Pipeline, pipeline.Deps{
		Open:     a.openCamera,
		Detector: a.detector,
		Sink:     a.sink,
		RunID:    a.runID,
		Display:  a.displays(),
		Metrics:  a.metrics,
		Logger:   a.logger,
	})
	if err != nil {
		a.sink.Close()
		a.detector.Close()
		return err
	}
	a.pipeline = p

	if a.window != nil {
		a.window.OnQuit = func() {
			a.logger.Info("quit key pressed")
			p.Stop()
		}
	}
	if a.webServer != nil {
		a.webServer.Controller = p
	}
	return nil
}

func (a *App) initSinks() error {
	csvSink, err := aggregate.OpenCSV(a.config.LogFile)
	if err != nil {
		return fmt.Errorf("open record log: %w", err)
	}
	a.recent = aggregate.NewMemorySink(a.config.RecentRecords)
	a.sink = aggregate.MultiSink{csvSink, a.recent}
	a.history = a.recent

	if a.config.DSN != "" {
		pg, err := aggregate.OpenPostgres(a.config.DSN, a.runID)
		if err != nil {
			a.sink.Close()
			return fmt.Errorf("open postgres: %w", err)
		}
		a.sink = append(a.sink, pg)
		a.history = pg
		a.logger.Info("postgres sink enabled")
	}
	return nil
}

func (a *App) initDisplays() {
	if !a.config.Headless {
		a.window = overlay.NewWindow(overlay.WindowTitle, overlay.DefaultStyle())
	}
	if a.config.DashboardEnabled {
		a.webServer = web.NewServer(a.config.Web, a.logger)
		a.webServer.History = a.history
		a.webServer.Metrics = a.metrics.Handler()
		a.webServer.EncodeFrame = overlay.NewJPEGEncoder(a.config.JPEGQuality).Encode
	}
}

func (a *App) displays() pipeline.Display {
	var ds pipeline.Displays
	if a.window != nil {
		ds = append(ds, a.window)
	}
	if a.webServer != nil {
		ds = append(ds, a.webServer)
	}
	if len(ds) == 0 {
		return nil
	}
	return ds
}

func (a *App) openCamera(context.Context) (camera.Source, error) {
	c, err := capture.Open(a.config.Camera, a.logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Run starts the dashboard and drives the pipeline until the camera ends,
// ctx is cancelled, the quit key is pressed or a fatal error occurs.
// It must be called from the goroutine that called Init when the preview
// window is enabled.
func (a *App) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return fmt.Errorf("monitor: Run called before Init")
	}

	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}

	if !a.config.Headless {
		a.logger.Info("press q in the preview window to quit")
	}
	return a.pipeline.Run(ctx)
}

// Shutdown releases the displays. The pipeline has already released the
// camera, the detector and the sinks when Run returns.
func (a *App) Shutdown() {
	if a.window != nil {
		if err := a.window.Close(); err != nil {
			a.logger.Warn("close window", "error", err)
		}
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("stop dashboard", "error", err)
		}
	}
	a.logger.Info("exited cleanly")
}
