package watermark

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"research2crossref/internal/fileutil"
)

// LegacyLayout is the format older deployments stored the watermark in.
const LegacyLayout = "2006-01-02:15:04:05"

// Store reads and writes the single timestamp bounding the next batch query.
type Store struct {
	path string
}

// New returns a store backed by path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the watermark file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored watermark. ok is false when none has been written.
func (s *Store) Load() (ts time.Time, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read watermark: %w", err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return time.Time{}, false, nil
	}
	ts, err = Parse(value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("watermark %s: %w", s.path, err)
	}
	return ts, true, nil
}

// Save replaces the watermark atomically.
func (s *Store) Save(ts time.Time) error {
	if ts.IsZero() {
		return errors.New("watermark: refusing to save zero time")
	}
	line := ts.UTC().Truncate(time.Second).Format(time.RFC3339) + "\n"
	if err := fileutil.WriteFileAtomic(s.path, []byte(line), 0o644); err != nil {
		return fmt.Errorf("save watermark: %w", err)
	}
	return nil
}

// Parse accepts RFC3339, the legacy layout and plain dates. Values without
// a zone are taken as UTC.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, LegacyLayout, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Advance computes the next watermark for a batch that started at start.
func Advance(start time.Time, margin time.Duration) time.Time {
	if margin < 0 {
		margin = 0
	}
	return start.Add(-margin).UTC().Truncate(time.Second)
}
