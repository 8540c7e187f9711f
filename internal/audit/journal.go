package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// FileJournal appends records as JSON lines to a daily rotated file. The
// store stays the system of record; the journal is a mirror for operators.
type FileJournal struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// JournalOption configures file rotation.
type JournalOption func(*journalConfig)

type journalConfig struct {
	rotation time.Duration
	maxAge   time.Duration
}

// WithRotation sets how often a new file is started.
func WithRotation(d time.Duration) JournalOption {
	return func(c *journalConfig) {
		if d > 0 {
			c.rotation = d
		}
	}
}

// WithMaxAge sets how long rotated files are kept.
func WithMaxAge(d time.Duration) JournalOption {
	return func(c *journalConfig) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// OpenFileJournal opens a journal at path. Rotated files are named
// path.YYYYMMDD and path itself is kept as a symlink to the current one.
func OpenFileJournal(path string, opts ...JournalOption) (*FileJournal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("audit: journal path is required")
	}
	cfg := journalConfig{rotation: 24 * time.Hour, maxAge: 30 * 24 * time.Hour}
	for _, opt := range opts {
		opt(&cfg)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("audit: resolve journal path: %w", err)
	}
	w, err := rotatelogs.New(
		abs+".%Y%m%d",
		rotatelogs.WithLinkName(abs),
		rotatelogs.WithRotationTime(cfg.rotation),
		rotatelogs.WithMaxAge(cfg.maxAge),
		rotatelogs.WithClock(rotatelogs.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("audit: open journal: %w", err)
	}
	return &FileJournal{w: w}, nil
}

// NewJournal wraps an arbitrary writer, mostly for tests.
func NewJournal(w io.WriteCloser) *FileJournal {
	return &FileJournal{w: w}
}

func (j *FileJournal) Append(_ context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(line); err != nil {
		return fmt.Errorf("audit: write journal: %w", err)
	}
	return nil
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Close()
}
