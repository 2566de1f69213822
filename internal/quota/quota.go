package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Usage is the persisted daily counter record.
type Usage struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ExceededError reports an exhausted daily budget.
type ExceededError struct {
	Day   string
	Limit int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily quota of %d calls reached for %s", e.Limit, e.Day)
}

// IsExceeded reports whether err is a quota exhaustion.
func IsExceeded(err error) bool {
	var e *ExceededError
	return errors.As(err, &e)
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Tracker enforces a daily call budget persisted as a single JSON file.
// The counter resets when the stored day differs from the current day.
// A limit of zero or less disables enforcement. Safe for concurrent use.
type Tracker struct {
	path       string
	limit      int
	timeSource TimeSource

	mu    sync.Mutex
	usage Usage
}

// NewTracker loads, or initializes, the counter file at path.
func NewTracker(path string, limit int) (*Tracker, error) {
	return NewTrackerWithDeps(path, limit, defaultTimeSource{})
}

// NewTrackerWithDeps creates a Tracker with a custom time source for
// testing.
func NewTrackerWithDeps(path string, limit int, timeSource TimeSource) (*Tracker, error) {
	t := &Tracker{path: path, limit: limit, timeSource: timeSource}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) load() error {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		t.usage = Usage{Day: t.today()}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading quota file: %w", err)
	}
	if err := json.Unmarshal(data, &t.usage); err != nil {
		// Corrupt counter files reset; the counter is derived state.
		t.usage = Usage{Day: t.today()}
	}
	return nil
}

// Take consumes one call from today's budget and persists the counter.
// It fails with an ExceededError once the budget is spent. The count
// covers accepted requests, so a later backend failure still counts.
func (t *Tracker) Take() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	if t.limit > 0 && t.usage.Count >= t.limit {
		return &ExceededError{Day: t.usage.Day, Limit: t.limit}
	}
	t.usage.Count++
	return t.persist()
}

// Snapshot returns the current day's usage and the configured limit.
func (t *Tracker) Snapshot() (Usage, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	return t.usage, t.limit
}

// rollover resets the counter when the stored day is stale. Callers
// hold mu.
func (t *Tracker) rollover() {
	if day := t.today(); t.usage.Day != day {
		t.usage = Usage{Day: day}
	}
}

func (t *Tracker) today() string {
	return t.timeSource.Now().Format("2006-01-02")
}

// persist writes the counter to a temp path and renames it over the
// final path, so readers never observe a partial file. Callers hold mu.
func (t *Tracker) persist() error {
	data, err := json.Marshal(t.usage)
	if err != nil {
		return fmt.Errorf("marshaling quota: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("creating quota directory: %w", err)
	}
	tmpPath := t.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing quota temp file: %w", err)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing quota file: %w", err)
	}
	return nil
}
