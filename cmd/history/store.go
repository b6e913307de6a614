// Package history keeps a bounded, newest-last log of placed calls in the
// caller data directory so the dashboard can show Recent Calls across runs.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/utils"
)

const (
	historyFileVersion = "1"
	historyFileName    = "calls.json"
	lockTimeout        = 10 * time.Second
	lockRetryDelay     = 100 * time.Millisecond
)

// Record is one dispatch attempt.
type Record struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	TransferTo  string    `json:"transfer_to,omitempty"`
	PlacedAt    time.Time `json:"placed_at"`
	Success     bool      `json:"success"`
	Output      string    `json:"output,omitempty"`
	Error       string    `json:"error,omitempty"`
}

type historyFile struct {
	Version string   `json:"version"`
	Calls   []Record `json:"calls"`
}

// Store reads and appends call records. It is safe for use by several
// processes at once; writers hold an exclusive lock on <path>.lock.
type Store struct {
	path  string
	limit int
	now   func() time.Time
}

// NewStore returns a store backed by path that retains at most limit records.
func NewStore(path string, limit int) *Store {
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}
	return &Store{path: path, limit: limit, now: time.Now}
}

// DefaultStore returns the store in the caller data directory.
func DefaultStore(limit int) (*Store, error) {
	dir, err := utils.GetDataDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, historyFileName), limit), nil
}

// Path is the JSON file backing the store.
func (s *Store) Path() string { return s.path }

// Append stamps rec with an ID and time when missing, stores it and returns
// the stored copy. The oldest records are dropped beyond the limit.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.PlacedAt.IsZero() {
		rec.PlacedAt = s.now().UTC()
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return rec, fmt.Errorf("failed to create history directory: %w", err)
	}

	unlock, err := s.lock(ctx, true)
	if err != nil {
		return rec, err
	}
	defer unlock()

	hf, err := s.read()
	if err != nil {
		return rec, err
	}
	hf.Calls = append(hf.Calls, rec)
	if over := len(hf.Calls) - s.limit; over > 0 {
		hf.Calls = hf.Calls[over:]
	}

	data, err := json.MarshalIndent(hf, "", "  ")
	if err != nil {
		return rec, fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return rec, fmt.Errorf("failed to write history: %w", err)
	}
	utils.LogDebug(fmt.Sprintf("history: appended call %s (%d stored)", rec.ID, len(hf.Calls)))
	return rec, nil
}

// Recent returns up to n records, newest first. n <= 0 returns all of them.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	unlock, err := s.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	hf, err := s.read()
	if err != nil {
		return nil, err
	}

	calls := hf.Calls
	if n > 0 && len(calls) > n {
		calls = calls[len(calls)-n:]
	}
	out := make([]Record, len(calls))
	for i, c := range calls {
		out[len(calls)-1-i] = c
	}
	return out, nil
}

func (s *Store) lock(ctx context.Context, exclusive bool) (func(), error) {
	fileLock := flock.New(s.path + ".lock")

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if exclusive {
		locked, err = fileLock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fileLock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire history lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for history lock")
	}
	return func() { _ = fileLock.Unlock() }, nil
}

// read must be called with the lock held.
func (s *Store) read() (*historyFile, error) {
	hf := &historyFile{Version: historyFileVersion}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return hf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if err := json.Unmarshal(data, hf); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", s.path, err)
	}
	hf.Version = historyFileVersion
	return hf, nil
}
