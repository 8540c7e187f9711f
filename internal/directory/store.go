package directory

import (
	"context"
	"sync"

	"phonebook.org/internal/audit"
)

// Store persists entries together with their audit trail. Every method that
// takes a record must commit the record and the change as one unit, and must
// write nothing when it fails.
type Store interface {
	// Add inserts entry. With a unique-phone policy it returns ErrConflict
	// when the number is already listed.
	Add(ctx context.Context, entry Entry, rec audit.Record) (Entry, error)
	// List returns entries in insertion order.
	List(ctx context.Context, rec audit.Record) ([]Entry, error)
	// DeleteByName removes the oldest entry with an exactly matching name.
	DeleteByName(ctx context.Context, name string, rec audit.Record) (Entry, error)
	// DeleteByNumber removes the oldest entry with an exactly matching number.
	DeleteByNumber(ctx context.Context, phone string, rec audit.Record) (Entry, error)
	audit.Trail
}

// MemoryStore implements Store in process. One mutex covers entries and
// trail so a change and its record are never observed apart.
type MemoryStore struct {
	mu          sync.Mutex
	entries     []Entry
	trail       *audit.MemoryLog
	uniquePhone bool
}

// MemoryOption configures MemoryStore.
type MemoryOption func(*MemoryStore)

// WithUniquePhone rejects a second entry with the same phone number.
func WithUniquePhone(on bool) MemoryOption {
	return func(m *MemoryStore) { m.uniquePhone = on }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{trail: audit.NewMemoryLog()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Add(ctx context.Context, entry Entry, rec audit.Record) (Entry, error) {
	if err := rec.Validate(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uniquePhone {
		for _, e := range m.entries {
			if e.PhoneNumber == entry.PhoneNumber {
				return Entry{}, ErrConflict
			}
		}
	}
	if err := m.trail.Append(ctx, rec); err != nil {
		return Entry{}, err
	}
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *MemoryStore) List(ctx context.Context, rec audit.Record) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trail.Append(ctx, rec); err != nil {
		return nil, err
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *MemoryStore) DeleteByName(ctx context.Context, name string, rec audit.Record) (Entry, error) {
	return m.deleteFirst(ctx, rec, func(e Entry) bool { return e.Name == name })
}

func (m *MemoryStore) DeleteByNumber(ctx context.Context, phone string, rec audit.Record) (Entry, error) {
	return m.deleteFirst(ctx, rec, func(e Entry) bool { return e.PhoneNumber == phone })
}

func (m *MemoryStore) deleteFirst(ctx context.Context, rec audit.Record, match func(Entry) bool) (Entry, error) {
	if err := rec.Validate(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if !match(e) {
			continue
		}
		if err := m.trail.Append(ctx, rec); err != nil {
			return Entry{}, err
		}
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		return e, nil
	}
	return Entry{}, ErrNotFound
}

func (m *MemoryStore) Records(ctx context.Context) ([]audit.Record, error) {
	return m.trail.Records(ctx)
}
