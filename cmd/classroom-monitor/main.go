// classroom-monitor counts students in a camera feed, estimates how many face
// the front of the room, and appends a smoothed engagement record to a CSV
// file every few seconds.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/teslashibe/go-classroom/internal/config"
	"github.com/teslashibe/go-classroom/internal/log"
	"github.com/teslashibe/go-classroom/pkg/monitor"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
)

func init() {
	// HighGUI windows must stay on the thread that created them.
	runtime.LockOSThread()
}

func main() {
	cfg := parseFlags()

	app, err := monitor.New(cfg, log.L())
	if err != nil {
		fatal("configuration error", err)
	}

	if err := app.Init(); err != nil {
		fatal("initialization failed", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		app.Shutdown()
		if errors.Is(err, pipeline.ErrAcquisition) {
			fatal("could not open camera", err)
		}
		fatal("runtime error", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables set the defaults; explicit flags override them.
func parseFlags() monitor.Config {
	cfg := monitor.DefaultConfig()
	cfg.LoadEnvConfig()

	logLevel := flag.String("log-level", config.String(config.EnvLogLevel, "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "CSV file aggregate records are appended to ($CLASSROOM_LOG_FILE)")
	flag.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Postgres DSN for a second record sink ($CLASSROOM_DSN)")

	flag.StringVar(&cfg.Camera.File, "video", "", "Play back a video file instead of the camera")
	flag.IntVar(&cfg.Camera.Device, "device", cfg.Camera.Device, "Camera device index for the fallback capture ($CLASSROOM_DEVICE)")
	noGst := flag.Bool("no-gstreamer", false, "Skip the GStreamer pipeline and open the device directly")
	flag.StringVar(&cfg.Camera.Pipeline, "pipeline", cfg.Camera.Pipeline, "GStreamer capture pipeline")

	flag.StringVar(&cfg.Model.ModelPath, "model", cfg.Model.ModelPath, "YOLO ONNX model ($CLASSROOM_MODEL)")
	flag.BoolVar(&cfg.Model.UseCUDA, "cuda", false, "Run inference on the CUDA backend")
	flag.Float64Var(&cfg.Pipeline.Detection.ConfidenceThresh, "confidence", cfg.Pipeline.Detection.ConfidenceThresh, "Minimum person confidence")

	flag.IntVar(&cfg.Pipeline.WindowSize, "window", cfg.Pipeline.WindowSize, "Frames averaged by the engagement smoother")
	flag.DurationVar(&cfg.Pipeline.LogInterval, "interval", cfg.Pipeline.LogInterval, "Minimum time between records")
	flag.BoolVar(&cfg.Pipeline.FailOnSinkError, "fail-on-sink-error", false, "Exit when a record cannot be written")

	flag.BoolVar(&cfg.Headless, "headless", false, "Do not open the preview window")
	noWeb := flag.Bool("no-web", false, "Disable the web dashboard")
	flag.StringVar(&cfg.Web.Port, "port", cfg.Web.Port, "Dashboard port ($CLASSROOM_HTTP_PORT)")
	flag.StringVar(&cfg.Web.StaticDir, "static", "", "Directory served at / by the dashboard")
	frameInterval := flag.Duration("frame-interval", 200*time.Millisecond, "Minimum spacing of dashboard camera frames")

	flag.Parse()

	log.Init(*logLevel)
	cfg.Camera.UseGStreamer = !*noGst
	cfg.DashboardEnabled = !*noWeb
	cfg.Web.FrameInterval = *frameInterval
	return cfg
}

func fatal(msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
