package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-classroom/internal/log"
)

func at(sec float64) time.Time {
	return time.Unix(0, 0).Add(time.Duration(sec * float64(time.Second)))
}

func newTestLogger(t *testing.T, interval time.Duration, sink Sink) *Logger {
	t.Helper()
	l, err := NewLogger(interval, sink, at(0), log.Discard())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return l
}

func TestNewLogger_Validation(t *testing.T) {
	if _, err := NewLogger(0, NewMemorySink(0), at(0), nil); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := NewLogger(-time.Second, NewMemorySink(0), at(0), nil); err == nil {
		t.Error("expected error for negative interval")
	}
	if _, err := NewLogger(time.Second, nil, at(0), nil); err == nil {
		t.Error("expected error for nil sink")
	}
}

func TestLogger_GateScenario(t *testing.T) {
	sink := NewMemorySink(0)
	l := newTestLogger(t, 10*time.Second, sink)

	calls := []struct {
		t          float64
		students   int
		engagement float64
		wantFired  bool
	}{
		{5, 1, 0.1, false},
		{11, 3, 0.4, true},
		{19, 2, 0.2, false},
		{22, 4, 0.6, true},
	}

	for _, c := range calls {
		fired, err := l.MaybeLog(at(c.t), c.students, c.engagement)
		if err != nil {
			t.Fatalf("t=%v: %v", c.t, err)
		}
		if fired != c.wantFired {
			t.Errorf("t=%v: fired = %v, want %v", c.t, fired, c.wantFired)
		}
	}

	recs := sink.Records()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if !recs[0].Timestamp.Equal(at(11)) || recs[0].StudentCount != 3 || recs[0].Engagement != 0.4 {
		t.Errorf("first record = %+v", recs[0])
	}
	if !recs[1].Timestamp.Equal(at(22)) {
		t.Errorf("second record at %v, want t=22", recs[1].Timestamp)
	}
}

func TestLogger_ExactIntervalFires(t *testing.T) {
	sink := NewMemorySink(0)
	l := newTestLogger(t, 10*time.Second, sink)

	if fired, _ := l.MaybeLog(at(10), 1, 1); !fired {
		t.Error("call exactly one interval after start should fire")
	}
}

func TestLogger_RecordCountMatchesElapsedIntervals(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		step     time.Duration
		final    time.Duration
	}{
		{"10s interval, 1s steps", 10 * time.Second, time.Second, 95 * time.Second},
		{"2s interval, 500ms steps", 2 * time.Second, 500 * time.Millisecond, 31 * time.Second},
		{"1s interval, 100ms steps", time.Second, 100 * time.Millisecond, 10 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := NewMemorySink(0)
			l := newTestLogger(t, tc.interval, sink)

			for now := tc.step; now <= tc.final; now += tc.step {
				if _, err := l.MaybeLog(at(0).Add(now), 1, 0.5); err != nil {
					t.Fatal(err)
				}
			}

			recs := sink.Records()
			want := int(tc.final / tc.interval)
			if len(recs) != want {
				t.Fatalf("got %d records, want %d", len(recs), want)
			}
			prev := at(0)
			for i, r := range recs {
				if gap := r.Timestamp.Sub(prev); gap < tc.interval {
					t.Errorf("record %d only %v after previous", i, gap)
				}
				prev = r.Timestamp
			}
		})
	}
}

func TestLogger_NoCatchUpAfterStall(t *testing.T) {
	sink := NewMemorySink(0)
	l := newTestLogger(t, 10*time.Second, sink)

	if fired, _ := l.MaybeLog(at(45), 2, 0.5); !fired {
		t.Fatal("expected record after stall")
	}
	if len(sink.Records()) != 1 {
		t.Errorf("stalled loop produced %d records, want 1", len(sink.Records()))
	}
	if fired, _ := l.MaybeLog(at(50), 2, 0.5); fired {
		t.Error("gate should restart from the stalled call, not from the missed intervals")
	}
}

func TestLogger_SinkFailureSurfacesAndAdvances(t *testing.T) {
	diskFull := errors.New("no space left on device")
	sink := NewMemorySink(0)
	sink.SetErr(diskFull)
	l := newTestLogger(t, 10*time.Second, sink)

	fired, err := l.MaybeLog(at(10), 1, 1)
	if !fired {
		t.Error("record was due, fired should be true")
	}
	if !errors.Is(err, diskFull) {
		t.Fatalf("err = %v, want wrapped %v", err, diskFull)
	}
	if !l.Last().Equal(at(10)) {
		t.Errorf("gate did not advance: last = %v", l.Last())
	}

	if _, err := l.MaybeLog(at(11), 1, 1); err != nil {
		t.Errorf("failed sink should not be retried every call: %v", err)
	}

	sink.SetErr(nil)
	if fired, err := l.MaybeLog(at(20), 5, 0.25); !fired || err != nil {
		t.Fatalf("recovery: fired=%v err=%v", fired, err)
	}
	recs := sink.Records()
	if len(recs) != 1 || recs[0].StudentCount != 5 {
		t.Errorf("records after recovery = %+v", recs)
	}
}

func TestLogger_OnRecord(t *testing.T) {
	var got []Record
	l := newTestLogger(t, time.Second, NewMemorySink(0))
	l.OnRecord = func(r Record) { got = append(got, r) }

	l.MaybeLog(at(0.5), 1, 0)
	l.MaybeLog(at(1), 2, 0.5)

	if len(got) != 1 || got[0].StudentCount != 2 {
		t.Errorf("OnRecord calls = %+v", got)
	}
}

func TestLogger_Close(t *testing.T) {
	sink := NewMemorySink(0)
	l := newTestLogger(t, time.Second, sink)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if !sink.Closed() {
		t.Error("sink should be closed")
	}
}
