package web

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-classroom/internal/log"
	"github.com/teslashibe/go-classroom/pkg/aggregate"
	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"localhost:8080", "http://localhost:8080", false},
		{"https://monitor.school.example/", "https://monitor.school.example", false},
		{"ws://host:8080", "", true},
		{"http://", "", true},
	}
	for _, tc := range tests {
		c, err := NewClient(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewClient(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && c.base != tc.want {
			t.Errorf("NewClient(%q).base = %q, want %q", tc.in, c.base, tc.want)
		}
	}
}

func TestClient_AgainstServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = "18092"
	s := NewServer(cfg, log.Discard())
	ctrl := &fakeController{state: pipeline.StateRunning}
	s.Controller = ctrl

	mem := aggregate.NewMemorySink(0)
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		mem.Append(aggregate.Record{Timestamp: base.Add(time.Duration(i) * 10 * time.Second), StudentCount: 10 + i, Engagement: 0.5})
	}
	s.History = mem
	s.Show(camera.BlankFrame(300, 300), sampleState(9))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartAsync(ctx)
	time.Sleep(100 * time.Millisecond)

	c, err := NewClient("localhost:18092")
	if err != nil {
		t.Fatal(err)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != "running" || st.Frame == nil || st.Frame.Seq != 9 {
		t.Errorf("status = %+v", st)
	}

	recs, err := c.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].StudentCount != 12 || !recs[0].Timestamp.Equal(base.Add(20*time.Second)) {
		t.Errorf("recent = %+v", recs)
	}

	if _, err := c.Recent(ctx, 0); err == nil || !strings.Contains(err.Error(), "limit must be") {
		t.Errorf("Recent(0) error = %v, want server message", err)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !ctrl.stopped.Load() {
		t.Error("controller should have been stopped")
	}
}
