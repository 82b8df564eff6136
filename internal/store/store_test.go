package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/brandpulse/brandpulse/pkg/models"
)

func testReport(runID string, generatedAt time.Time) models.Report {
	return models.Report{
		RunID:          runID,
		Brand:          "Nansen",
		GeneratedAt:    generatedAt,
		WindowHours:    24,
		TotalCount:     5,
		PositiveCount:  3,
		NegativeCount:  1,
		NeutralCount:   1,
		SentimentScore: 0.4,
		Trend:          models.TrendUnknown,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	want := testReport("run-abc", time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC))
	path, err := fs.Save(want)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadReport(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestFileStoreLatest(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fs.Latest(); !errors.Is(err, ErrNoReports) {
		t.Errorf("empty dir should return ErrNoReports, got %v", err)
	}

	base := time.Date(2026, 8, 22, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		if _, err := fs.Save(testReport(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := fs.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-new" {
		t.Errorf("latest = %q, want run-new", got.RunID)
	}
}

func TestFileStoreCleanupOld(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	oldPath, err := fs.Save(testReport("run-old", time.Now().AddDate(0, 0, -40)))
	if err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Save(testReport("run-new", time.Now())); err != nil {
		t.Fatal(err)
	}

	removed, err := fs.CleanupOld(30)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("stale report should be gone")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("remaining files = %d, want 1", len(entries))
	}
}

func TestWriteReportExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	want := testReport("run-out", time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC))

	if err := WriteReport(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadReport(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != want.RunID || got.SentimentScore != want.SentimentScore {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		prior   []float64
		want    models.Trend
	}{
		{"no history", 0.3, nil, models.TrendUnknown},
		{"clear improvement", 0.3, []float64{0.1, 0.1, 0.1}, models.TrendImproving},
		{"clear decline", -0.2, []float64{0.1, 0.0, 0.2}, models.TrendDeclining},
		{"within band", 0.14, []float64{0.1, 0.1, 0.1}, models.TrendStable},
		{"exactly at band edge", 0.15, []float64{0.1, 0.1, 0.1}, models.TrendStable},
		{"single prior run", 0.5, []float64{0.1}, models.TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.current, tt.prior); got != tt.want {
				t.Errorf("ClassifyTrend(%v, %v) = %q, want %q", tt.current, tt.prior, got, tt.want)
			}
		})
	}
}
