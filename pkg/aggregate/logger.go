package aggregate

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval is the minimum spacing between two records.
const DefaultInterval = 10 * time.Second

// Logger writes one record per elapsed interval. The gate is
// level-triggered: the first call at or after last+interval fires once with
// the metrics passed to that call, and no catch-up records are produced for
// intervals skipped by a stalled caller.
type Logger struct {
	interval time.Duration
	last     time.Time
	sink     Sink
	logger   *slog.Logger

	// OnRecord is called after every successful append.
	OnRecord func(r Record)
}

// NewLogger creates a logger whose first record is due one interval after start.
func NewLogger(interval time.Duration, sink Sink, start time.Time, logger *slog.Logger) (*Logger, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("aggregate: log interval must be positive, got %s", interval)
	}
	if sink == nil {
		return nil, fmt.Errorf("aggregate: sink is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		interval: interval,
		last:     start,
		sink:     sink,
		logger:   logger.With("component", "aggregate"),
	}, nil
}

// MaybeLog appends a record if at least one interval has passed since the
// last one. fired reports whether a record was due. A sink failure is
// returned to the caller; the gate still advances so a broken sink is not
// retried on every frame.
func (l *Logger) MaybeLog(now time.Time, students int, engagement float64) (fired bool, err error) {
	if now.Sub(l.last) < l.interval {
		return false, nil
	}
	l.last = now

	rec := Record{Timestamp: now, StudentCount: students, Engagement: engagement}
	if err := l.sink.Append(rec); err != nil {
		return true, fmt.Errorf("aggregate: append record: %w", err)
	}

	l.logger.Info("record written",
		"timestamp", rec.Timestamp.Format(TimestampLayout),
		"students", students,
		"engagement_pct", fmt.Sprintf("%.1f", engagement*100))
	if l.OnRecord != nil {
		l.OnRecord(rec)
	}
	return true, nil
}

// Last returns the time of the last fired record (or the start time).
func (l *Logger) Last() time.Time { return l.last }

// Interval returns the configured interval.
func (l *Logger) Interval() time.Duration { return l.interval }

// Close closes the underlying sink.
func (l *Logger) Close() error {
	return l.sink.Close()
}
