package aggregate

import "sync"

// MemorySink keeps records in memory. Limit > 0 keeps only the most recent
// records. Setting Err makes every Append fail, which is how tests simulate
// an unwritable disk.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
	closed  bool

	Limit int
	Err   error
}

// NewMemorySink creates a sink retaining at most limit records (0 = all).
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{Limit: limit}
}

// Append stores r.
func (m *MemorySink) Append(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSinkClosed
	}
	if m.Err != nil {
		return m.Err
	}
	m.records = append(m.records, r)
	if m.Limit > 0 && len(m.records) > m.Limit {
		m.records = m.records[len(m.records)-m.Limit:]
	}
	return nil
}

// SetErr changes the failure injected into Append.
func (m *MemorySink) SetErr(err error) {
	m.mu.Lock()
	m.Err = err
	m.mu.Unlock()
}

// Records returns a copy of the stored records, oldest first.
func (m *MemorySink) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (m *MemorySink) Recent(limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(m.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Close marks the sink closed.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemorySink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
