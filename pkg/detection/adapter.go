package detection

import (
	"log/slog"

	"github.com/teslashibe/go-classroom/pkg/camera"
)

// Adapter wraps a Detector so that a bad frame never stops the pipeline.
// Errors are logged and turned into an empty detection set, and results are
// filtered to the configured classes and confidence threshold.
type Adapter struct {
	detector Detector
	config   Config
	classes  map[string]bool
	logger   *slog.Logger

	// OnError is called for every detector failure (metrics hook).
	OnError func(err error)
}

// NewAdapter creates an adapter around d.
func NewAdapter(d Detector, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	classes := make(map[string]bool, len(cfg.Classes))
	for _, c := range cfg.Classes {
		classes[c] = true
	}
	return &Adapter{
		detector: d,
		config:   cfg,
		classes:  classes,
		logger:   logger.With("component", "detection"),
	}
}

// Detect runs the detector on frame and returns the kept detections.
// It never fails: a detector error yields an empty set for this frame.
func (a *Adapter) Detect(frame camera.Frame) []Detection {
	dets, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn("detection failed, counting frame as empty", "seq", frame.Seq, "error", err)
		if a.OnError != nil {
			a.OnError(err)
		}
		return nil
	}
	return a.Filter(dets)
}

// Filter keeps detections of the configured classes at or above the
// confidence threshold. The input slice is not modified.
//
// Scores are compared in float32, the precision the model produces them in,
// so a score equal to the threshold is kept.
func (a *Adapter) Filter(dets []Detection) []Detection {
	thresh := float32(a.config.ConfidenceThresh)
	kept := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if !a.classes[d.Label] || float32(d.Confidence) < thresh {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// Close releases the wrapped detector.
func (a *Adapter) Close() error {
	return a.detector.Close()
}
