package engagement

import (
	"math/rand"
	"testing"

	"github.com/teslashibe/go-classroom/pkg/detection"
)

func TestDefaultZone(t *testing.T) {
	zc := DefaultZone()
	if errs := zc.Validate(); len(errs) > 0 {
		t.Fatalf("DefaultZone invalid: %v", errs)
	}

	z := ZoneFor(300, 300, zc)
	want := Zone{Left: 100, Top: 0, Right: 200, Bottom: 200}
	if z != want {
		t.Errorf("ZoneFor(300, 300) = %+v, want %+v", z, want)
	}
}

func TestZoneConfig_Validate(t *testing.T) {
	bad := []ZoneConfig{
		{Left: 0.5, Right: 0.5, Top: 0, Bottom: 1},
		{Left: 0.6, Right: 0.4, Top: 0, Bottom: 1},
		{Left: -0.1, Right: 0.5, Top: 0, Bottom: 1},
		{Left: 0, Right: 1.2, Top: 0, Bottom: 1},
		{Left: 0, Right: 1, Top: 0.7, Bottom: 0.3},
	}
	for _, zc := range bad {
		if errs := zc.Validate(); len(errs) == 0 {
			t.Errorf("expected %+v to be invalid", zc)
		}
	}
}

func TestClassify_Scenarios(t *testing.T) {
	zc := DefaultZone()

	tests := []struct {
		name        string
		dets        []detection.Detection
		wantCount   int
		wantEngaged int
		wantRatio   float64
	}{
		{
			name:        "centered student engaged",
			dets:        []detection.Detection{detection.PersonAt(150, 100, 40, 80)},
			wantCount:   1,
			wantEngaged: 1,
			wantRatio:   1.0,
		},
		{
			name:        "student left of zone",
			dets:        []detection.Detection{detection.PersonAt(50, 50, 40, 80)},
			wantCount:   1,
			wantEngaged: 0,
			wantRatio:   0.0,
		},
		{
			name:        "no students",
			dets:        nil,
			wantCount:   0,
			wantEngaged: 0,
			wantRatio:   0.0,
		},
		{
			name: "mixed room",
			dets: []detection.Detection{
				detection.PersonAt(150, 100, 40, 80), // engaged
				detection.PersonAt(120, 20, 40, 40),  // engaged
				detection.PersonAt(250, 100, 40, 80), // right third
				detection.PersonAt(150, 250, 40, 80), // bottom third
			},
			wantCount:   4,
			wantEngaged: 2,
			wantRatio:   0.5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Classify(300, 300, tc.dets, zc)
			if m.StudentCount != tc.wantCount {
				t.Errorf("StudentCount = %d, want %d", m.StudentCount, tc.wantCount)
			}
			if m.EngagedCount != tc.wantEngaged {
				t.Errorf("EngagedCount = %d, want %d", m.EngagedCount, tc.wantEngaged)
			}
			if m.Ratio != tc.wantRatio {
				t.Errorf("Ratio = %v, want %v", m.Ratio, tc.wantRatio)
			}
		})
	}
}

func TestClassify_Boundaries(t *testing.T) {
	const w, h = 300, 300
	zc := DefaultZone()
	z := ZoneFor(w, h, zc)

	tests := []struct {
		name    string
		cx, cy  float64
		engaged bool
	}{
		{"left edge is inside", z.Left, 100, true},
		{"right edge is outside", z.Right, 100, false},
		{"bottom edge is outside", 150, z.Bottom, false},
		{"top edge is inside", 150, z.Top, true},
		{"just inside bottom", 150, z.Bottom - 2, true},
		{"just left of zone", z.Left - 2, 100, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Classify(w, h, []detection.Detection{detection.PersonAt(tc.cx, tc.cy, 20, 20)}, zc)
			if got := m.EngagedCount == 1; got != tc.engaged {
				t.Errorf("center (%v, %v): engaged = %v, want %v", tc.cx, tc.cy, got, tc.engaged)
			}
		})
	}
}

func TestClassify_CountInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	zc := DefaultZone()

	for i := 0; i < 200; i++ {
		w := 64 + rng.Intn(1920)
		h := 48 + rng.Intn(1080)
		n := rng.Intn(12)

		dets := make([]detection.Detection, n)
		for j := range dets {
			dets[j] = detection.PersonAt(rng.Float64()*float64(w), rng.Float64()*float64(h), 30, 60)
		}

		m := Classify(w, h, dets, zc)
		if m.StudentCount != n {
			t.Fatalf("StudentCount = %d, want %d", m.StudentCount, n)
		}
		if m.EngagedCount > m.StudentCount {
			t.Fatalf("EngagedCount %d > StudentCount %d", m.EngagedCount, m.StudentCount)
		}
		if m.Ratio < 0 || m.Ratio > 1 {
			t.Fatalf("Ratio %v out of [0,1]", m.Ratio)
		}

		again := Classify(w, h, dets, zc)
		if again != m {
			t.Fatalf("Classify not deterministic: %+v vs %+v", m, again)
		}
	}
}

func TestClassify_CustomZone(t *testing.T) {
	zc := ZoneConfig{Left: 0, Right: 1, Top: 0, Bottom: 1}
	dets := []detection.Detection{
		detection.PersonAt(10, 10, 4, 4),
		detection.PersonAt(90, 90, 4, 4),
	}

	m := Classify(100, 100, dets, zc)
	if m.EngagedCount != 2 || m.Ratio != 1 {
		t.Errorf("whole-frame zone: got %+v", m)
	}
}
