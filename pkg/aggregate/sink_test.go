package aggregate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecord_Fields(t *testing.T) {
	r := Record{
		Timestamp:    time.Date(2025, 3, 4, 9, 15, 30, 999, time.Local),
		StudentCount: 17,
		Engagement:   0.41666,
	}
	got := r.Fields()
	want := []string{"2025-03-04T09:15:30", "17", "0.417"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCSVSink_CreatesHeaderAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classroom_log.csv")

	s, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	ts := time.Date(2025, 3, 4, 9, 0, 10, 0, time.Local)
	if err := s.Append(Record{Timestamp: ts, StudentCount: 3, Engagement: 0.4}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenCSV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := s.Append(Record{Timestamp: ts.Add(11 * time.Second), StudentCount: 4, Engagement: 0.5}); err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	s.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"timestamp,num_students,engagement",
		"2025-03-04T09:00:10,3,0.400",
		"2025-03-04T09:00:21,4,0.500",
	}
	if len(lines) != len(want) {
		t.Fatalf("file has %d lines, want %d:\n%s", len(lines), len(want), data)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestCSVSink_AppendAfterClose(t *testing.T) {
	s, err := OpenCSV(filepath.Join(t.TempDir(), "log.csv"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if err := s.Append(Record{}); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("got %v, want ErrSinkClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestOpenCSV_Unwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "log.csv")
	if _, err := OpenCSV(path); err == nil {
		t.Error("expected error opening file in missing directory")
	}
}

func TestMemorySink_Limit(t *testing.T) {
	m := NewMemorySink(2)
	for i := 1; i <= 3; i++ {
		m.Append(Record{StudentCount: i})
	}
	recs := m.Records()
	if len(recs) != 2 || recs[0].StudentCount != 2 || recs[1].StudentCount != 3 {
		t.Errorf("Records() = %+v", recs)
	}
}

func TestMemorySink_Recent(t *testing.T) {
	m := NewMemorySink(0)
	for i := 1; i <= 4; i++ {
		m.Append(Record{StudentCount: i})
	}

	tests := []struct {
		limit int
		want  []int
	}{
		{2, []int{4, 3}},
		{10, []int{4, 3, 2, 1}},
		{0, []int{4, 3, 2, 1}},
	}
	for _, tc := range tests {
		recs, err := m.Recent(tc.limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != len(tc.want) {
			t.Fatalf("Recent(%d) returned %d records, want %d", tc.limit, len(recs), len(tc.want))
		}
		for i, r := range recs {
			if r.StudentCount != tc.want[i] {
				t.Errorf("Recent(%d)[%d] = %d, want %d", tc.limit, i, r.StudentCount, tc.want[i])
			}
		}
	}
}

func TestMultiSink(t *testing.T) {
	ok := NewMemorySink(0)
	broken := NewMemorySink(0)
	broken.SetErr(errors.New("permission denied"))
	ms := MultiSink{broken, ok}

	err := ms.Append(Record{StudentCount: 1})
	if err == nil {
		t.Error("expected joined error from broken sink")
	}
	if len(ok.Records()) != 1 {
		t.Error("healthy sink should still receive the record")
	}

	if err := ms.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !ok.Closed() || !broken.Closed() {
		t.Error("all sinks should be closed")
	}
}

func TestRowFromRecord(t *testing.T) {
	ts := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	row := RowFromRecord("run-1", Record{Timestamp: ts, StudentCount: 12, Engagement: 0.75})

	if row.RunID != "run-1" || !row.RecordedAt.Equal(ts) || row.StudentCount != 12 || row.Engagement != 0.75 {
		t.Errorf("RowFromRecord = %+v", row)
	}
	if back := row.Record(); !back.Timestamp.Equal(ts) || back.StudentCount != 12 || back.Engagement != 0.75 {
		t.Errorf("Record() = %+v", back)
	}
	if row.TableName() != "engagement_records" {
		t.Errorf("TableName = %q", row.TableName())
	}
}

func TestGormSink_Postgres(t *testing.T) {
	dsn := os.Getenv("CLASSROOM_TEST_DSN")
	if dsn == "" {
		t.Skip("CLASSROOM_TEST_DSN not set")
	}

	runID := "test-" + time.Now().Format("150405.000")
	s, err := OpenPostgres(dsn, runID)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()

	now := time.Now()
	for i := 0; i < 3; i++ {
		if err := s.Append(Record{Timestamp: now.Add(time.Duration(i) * 10 * time.Second), StudentCount: i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rows, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(rows) != 2 || rows[0].StudentCount != 2 {
		t.Errorf("Recent(2) = %+v", rows)
	}
}
