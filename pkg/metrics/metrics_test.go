package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFrame(t *testing.T) {
	m := New()
	m.ObserveFrame(7, 0.5, 0.42, 12*time.Millisecond)

	if got := m.FramesProcessed.Load(); got != 1 {
		t.Errorf("FramesProcessed = %d, want 1", got)
	}
	if got := m.Students(); got != 7 {
		t.Errorf("Students = %d, want 7", got)
	}
	if got := m.SmoothedEngagement(); got != 0.42 {
		t.Errorf("SmoothedEngagement = %v, want 0.42", got)
	}
}

func TestRegistry_Collects(t *testing.T) {
	m := New()
	m.DetectionErrors.Add(2)
	m.ObserveFrame(3, 1, 0.9, time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry())
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 11 {
		t.Errorf("gathered %d series, want 11", count)
	}

	err = testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP classroom_detection_errors_total Total detector failures
# TYPE classroom_detection_errors_total counter
classroom_detection_errors_total 2
# HELP classroom_students Students detected in the latest frame
# TYPE classroom_students gauge
classroom_students 3
`), "classroom_detection_errors_total", "classroom_students")
	if err != nil {
		t.Error(err)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordsWritten.Add(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "classroom_records_written_total 4") {
		t.Errorf("metrics output missing records counter:\n%s", body)
	}
}
