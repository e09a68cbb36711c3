package aggregate

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// CSVHeader is written once when the log file is created.
var CSVHeader = []string{"timestamp", "num_students", "engagement"}

// CSVSink appends records to a CSV file, one line per record.
type CSVSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	w      *csv.Writer
	closed bool
}

// OpenCSV opens path for appending, creating it with a header if it does not
// exist or is empty. Existing content is never rewritten.
func OpenCSV(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("aggregate: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("aggregate: stat %s: %w", path, err)
	}

	s := &CSVSink{path: path, file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.write(CSVHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

// Path returns the file being appended to.
func (s *CSVSink) Path() string { return s.path }

// Append writes one record line and flushes it to the file.
func (s *CSVSink) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	return s.write(r.Fields())
}

func (s *CSVSink) write(fields []string) error {
	if err := s.w.Write(fields); err != nil {
		return fmt.Errorf("aggregate: write %s: %w", s.path, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("aggregate: flush %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the file. Safe to call more than once.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Flush()
	return s.file.Close()
}
