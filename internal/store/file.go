// Package store persists finished reports: JSON files on disk for the
// latest-report API and ad-hoc inspection, Postgres for score history that
// feeds the trend calculation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/pkg/models"
)

// ErrNoReports is returned by Latest when the report directory is empty.
var ErrNoReports = errors.New("store: no reports found")

const reportPrefix = "report-"

// FileStore writes one JSON file per run under a directory. Filenames embed
// the generation timestamp so lexicographic order is chronological.
type FileStore struct {
	dir string
}

// NewFileStore creates the report directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create report dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the report and returns the path it was written to.
func (f *FileStore) Save(r models.Report) (string, error) {
	name := fmt.Sprintf("%s%s-%s.json",
		reportPrefix,
		r.GeneratedAt.UTC().Format("20060102T150405Z"),
		shortID(r.RunID))
	path := filepath.Join(f.dir, name)
	if err := WriteReport(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// Latest loads the most recently generated report.
func (f *FileStore) Latest() (models.Report, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return models.Report{}, fmt.Errorf("store: read report dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), reportPrefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return models.Report{}, ErrNoReports
	}
	sort.Strings(names)

	return ReadReport(filepath.Join(f.dir, names[len(names)-1]))
}

// CleanupOld deletes report files older than the retention window and
// returns how many were removed.
func (f *FileStore) CleanupOld(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("store: read report dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), reportPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(f.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// WriteReport marshals a report to a standalone JSON file. Used by Save and
// by the run command's --output flag.
func WriteReport(path string, r models.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report from a JSON file.
func ReadReport(path string) (models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Report{}, fmt.Errorf("store: read %s: %w", path, err)
	}
	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return models.Report{}, fmt.Errorf("store: unmarshal %s: %w", path, err)
	}
	return r, nil
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
