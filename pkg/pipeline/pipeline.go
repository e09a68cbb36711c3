// Package pipeline drives the per-frame classroom analytics loop.
//
// One goroutine reads a frame, runs detection, classifies engagement, pushes
// the ratio into the smoothing window, offers the result to the interval
// logger and hands the frame state to the display. The driver moves through
// init, running and stopped; stopped is terminal and releases the frame
// source, the detector and the record sink on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-classroom/pkg/aggregate"
	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/detection"
	"github.com/teslashibe/go-classroom/pkg/engagement"
	"github.com/teslashibe/go-classroom/pkg/metrics"
	"github.com/teslashibe/go-classroom/pkg/smoothing"
)

// Deps are the collaborators owned by the pipeline.
type Deps struct {
	// Open acquires the frame source. Called once, at init.
	Open func(ctx context.Context) (camera.Source, error)

	Detector detection.Detector
	Sink     aggregate.Sink

	// Optional.
	RunID   string // Generated when empty
	Display Display
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Pipeline is the frame loop driver. Create with New, run once with Run.
type Pipeline struct {
	cfg     Config
	deps    Deps
	runID   string
	logger  *slog.Logger
	clock   func() time.Time
	metrics *metrics.Metrics

	adapter *detection.Adapter
	window  *smoothing.Window

	state atomic.Int32
	stop  atomic.Bool
	ran   atomic.Bool

	mu       sync.RWMutex
	snapshot FrameState
	haveSnap bool
}

// New validates cfg and deps. An invalid configuration is fatal: the
// pipeline refuses to start rather than clamping values.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Open == nil {
		return nil, fmt.Errorf("%w: frame source opener is required", ErrInvalidConfig)
	}
	if deps.Detector == nil {
		return nil, fmt.Errorf("%w: detector is required", ErrInvalidConfig)
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("%w: record sink is required", ErrInvalidConfig)
	}

	window, err := smoothing.NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	p := &Pipeline{
		cfg:     cfg,
		deps:    deps,
		runID:   deps.RunID,
		clock:   deps.Clock,
		metrics: deps.Metrics,
		window:  window,
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p.logger = logger.With("component", "pipeline", "run_id", p.runID)

	p.adapter = detection.NewAdapter(deps.Detector, cfg.Detection, logger)
	p.adapter.OnError = func(error) { p.metrics.DetectionErrors.Add(1) }

	return p, nil
}

// RunID identifies this pipeline run in logs and stored rows.
func (p *Pipeline) RunID() string { return p.runID }

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return State(p.state.Load()) }

// Metrics returns the counters updated by the loop.
func (p *Pipeline) Metrics() *metrics.Metrics { return p.metrics }

// Stop asks the loop to finish after the current iteration.
func (p *Pipeline) Stop() { p.stop.Store(true) }

// Snapshot returns the state of the last processed frame.
// ok is false until the first frame has been processed.
func (p *Pipeline) Snapshot() (state FrameState, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, p.haveSnap
}

// Run executes the loop until the source ends, ctx is cancelled, Stop is
// called, or a fatal error occurs. End of stream and stop requests return
// nil. Acquisition failures return an error wrapping ErrAcquisition.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	if !p.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	var source camera.Source
	defer func() {
		p.state.Store(int32(StateStopped))
		p.release(source)
		p.logger.Info("pipeline stopped", "frames", p.metrics.FramesProcessed.Load(), "error", err)
	}()

	source, err = p.deps.Open(ctx)
	if err != nil {
		source = nil
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	records, err := aggregate.NewLogger(p.cfg.LogInterval, p.deps.Sink, p.clock(), p.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	records.OnRecord = func(aggregate.Record) { p.metrics.RecordsWritten.Add(1) }

	p.state.Store(int32(StateRunning))
	p.logger.Info("pipeline running",
		"window", p.cfg.WindowSize,
		"log_interval", p.cfg.LogInterval,
		"confidence", p.cfg.Detection.ConfidenceThresh)

	for {
		frame, err := source.Read(ctx)
		switch {
		case err == nil:
			p.metrics.FramesRead.Add(1)
			if err := p.process(frame, records); err != nil {
				return err
			}
		case errors.Is(err, camera.ErrEndOfStream):
			p.logger.Info("frame source ended")
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			p.metrics.ReadErrors.Add(1)
			p.logger.Warn("frame read failed, skipping iteration", "error", err)
		}

		if p.stopRequested(ctx) {
			p.logger.Info("stop requested")
			return nil
		}
	}
}

// process runs one frame through detection, classification, smoothing,
// the record gate and the display. Only a sink failure under
// FailOnSinkError is returned.
func (p *Pipeline) process(frame camera.Frame, records *aggregate.Logger) error {
	start := time.Now()

	dets := p.adapter.Detect(frame)
	fm := engagement.Classify(frame.Width, frame.Height, dets, p.cfg.Zone)
	smoothed := p.window.Push(fm.Ratio)

	if _, err := records.MaybeLog(p.clock(), fm.StudentCount, smoothed); err != nil {
		p.metrics.SinkErrors.Add(1)
		if p.cfg.FailOnSinkError {
			return err
		}
		p.logger.Error("record dropped", "error", err)
	}

	state := FrameState{
		RunID:      p.runID,
		Seq:        frame.Seq,
		Timestamp:  frame.Timestamp,
		Width:      frame.Width,
		Height:     frame.Height,
		Detections: dets,
		Metrics:    fm,
		Smoothed:   smoothed,
		Zone:       engagement.ZoneFor(frame.Width, frame.Height, p.cfg.Zone),
	}

	p.mu.Lock()
	p.snapshot = state
	p.haveSnap = true
	p.mu.Unlock()

	if p.deps.Display != nil {
		if err := p.deps.Display.Show(frame, state); err != nil {
			p.metrics.DisplayErrors.Add(1)
			p.logger.Warn("display update failed", "error", err)
		}
	}

	p.metrics.ObserveFrame(fm.StudentCount, fm.Ratio, smoothed, time.Since(start))
	return nil
}

func (p *Pipeline) stopRequested(ctx context.Context) bool {
	return p.stop.Load() || ctx.Err() != nil
}

type namedCloser struct {
	name string
	c    io.Closer
}

func (p *Pipeline) release(source camera.Source) {
	closers := []namedCloser{{"sink", p.deps.Sink}, {"detector", p.adapter}}
	if source != nil {
		closers = append([]namedCloser{{"source", source}}, closers...)
	}

	for _, c := range closers {
		if err := c.c.Close(); err != nil {
			p.logger.Warn("release failed", "resource", c.name, "error", err)
		}
	}
}
