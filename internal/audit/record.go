package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Action tags written by the directory.
const (
	ActionAdd    = "add"
	ActionList   = "list"
	ActionDelete = "delete"
)

// Record is one immutable audit trail entry.
type Record struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Validate checks the fields every record must carry.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return errors.New("audit: record id is required")
	case strings.TrimSpace(r.Actor) == "":
		return errors.New("audit: actor is required")
	case strings.TrimSpace(r.Action) == "":
		return errors.New("audit: action is required")
	case r.OccurredAt.IsZero():
		return errors.New("audit: timestamp is required")
	}
	return nil
}

// Sink receives committed records. Implementations only ever append.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// Trail lists the audit trail in append order.
type Trail interface {
	Records(ctx context.Context) ([]Record, error)
}

// MemoryLog is an in-process append-only trail.
type MemoryLog struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

func (l *MemoryLog) Append(_ context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLog) Records(_ context.Context) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out, nil
}

// Len reports how many records have been appended.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
