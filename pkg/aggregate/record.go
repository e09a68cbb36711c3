// Package aggregate persists periodic classroom statistics.
//
// Only scalar aggregates are written: a timestamp, the student count and the
// smoothed engagement. Records are append-only and never rewritten.
package aggregate

import (
	"errors"
	"strconv"
	"time"
)

// TimestampLayout is ISO-8601 with seconds precision, local time.
const TimestampLayout = "2006-01-02T15:04:05"

// ErrSinkClosed is returned when appending to a closed sink.
var ErrSinkClosed = errors.New("aggregate: sink closed")

// Record is one persisted aggregate sample.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	StudentCount int       `json:"student_count"`
	Engagement   float64   `json:"engagement"`
}

// Fields returns the record as CSV fields in file order:
// timestamp, student count, engagement.
func (r Record) Fields() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		strconv.Itoa(r.StudentCount),
		strconv.FormatFloat(r.Engagement, 'f', 3, 64),
	}
}

// Sink is a durable, append-only destination for records.
type Sink interface {
	Append(r Record) error
	Close() error
}

// History serves the most recent records, newest first.
type History interface {
	Recent(limit int) ([]Record, error)
}
