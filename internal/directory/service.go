package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"phonebook.org/internal/audit"
	"phonebook.org/internal/auth"
	"phonebook.org/internal/ids"
	"phonebook.org/internal/obs"
	"phonebook.org/internal/validate"
)

// Service runs directory operations in a fixed order: authorization gate,
// input validation, then the store, which commits the change and its audit
// record together.
type Service struct {
	store     Store
	validator validate.Validator
	journal   audit.Sink
	now       func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithValidator replaces the default grammar rules.
func WithValidator(v validate.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithJournal mirrors every committed audit record to sink.
func WithJournal(sink audit.Sink) Option {
	return func(s *Service) { s.journal = sink }
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("directory: store is required")
	}
	s := &Service{store: store, validator: validate.Rules{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Add validates and stores a new entry.
func (s *Service) Add(ctx context.Context, actor auth.Identity, name, phone string) (entry Entry, err error) {
	defer func() { observe("add", err) }()
	if err := auth.RequireWrite(actor); err != nil {
		return Entry{}, err
	}
	if name, err = s.validator.Name(name); err != nil {
		return Entry{}, err
	}
	if phone, err = s.validator.Phone(phone); err != nil {
		return Entry{}, err
	}

	rec := s.record(actor, audit.ActionAdd, "Added "+name)
	entry, err = s.store.Add(ctx, Entry{ID: ids.New(), Name: name, PhoneNumber: phone}, rec)
	if err != nil {
		return Entry{}, storeErr("add entry", err)
	}
	s.mirror(ctx, rec)
	return entry, nil
}

// List returns every entry in storage order. Reads are audited too.
func (s *Service) List(ctx context.Context, actor auth.Identity) (entries []Entry, err error) {
	defer func() { observe("list", err) }()
	if err := auth.RequireRead(actor); err != nil {
		return nil, err
	}
	rec := s.record(actor, audit.ActionList, "Listed phone book entries")
	entries, err = s.store.List(ctx, rec)
	if err != nil {
		return nil, storeErr("list entries", err)
	}
	s.mirror(ctx, rec)
	return entries, nil
}

// DeleteByName removes the first entry whose name matches exactly.
func (s *Service) DeleteByName(ctx context.Context, actor auth.Identity, name string) (deleted Entry, err error) {
	defer func() { observe("delete_by_name", err) }()
	if err := auth.RequireWrite(actor); err != nil {
		return Entry{}, err
	}
	if name, err = s.validator.Name(name); err != nil {
		return Entry{}, err
	}
	rec := s.record(actor, audit.ActionDelete, "Deleted "+name)
	deleted, err = s.store.DeleteByName(ctx, name, rec)
	if err != nil {
		return Entry{}, storeErr("delete by name", err)
	}
	s.mirror(ctx, rec)
	return deleted, nil
}

// DeleteByNumber removes the first entry whose phone number matches exactly.
func (s *Service) DeleteByNumber(ctx context.Context, actor auth.Identity, phone string) (deleted Entry, err error) {
	defer func() { observe("delete_by_number", err) }()
	if err := auth.RequireWrite(actor); err != nil {
		return Entry{}, err
	}
	if phone, err = s.validator.Phone(phone); err != nil {
		return Entry{}, err
	}
	rec := s.record(actor, audit.ActionDelete, "Deleted "+phone)
	deleted, err = s.store.DeleteByNumber(ctx, phone, rec)
	if err != nil {
		return Entry{}, storeErr("delete by number", err)
	}
	s.mirror(ctx, rec)
	return deleted, nil
}

// AuditLog returns the trail. Only write-role identities may read it.
func (s *Service) AuditLog(ctx context.Context, actor auth.Identity) ([]audit.Record, error) {
	if err := auth.RequireWrite(actor); err != nil {
		return nil, err
	}
	recs, err := s.store.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	return recs, nil
}

func (s *Service) record(actor auth.Identity, action, detail string) audit.Record {
	return audit.Record{
		ID:         ids.New(),
		ActorID:    actor.ID,
		Actor:      actor.Username,
		Action:     action,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
	}
}

// mirror copies a committed record to the journal. The store already holds
// the record, so a journal failure is logged and not returned.
func (s *Service) mirror(ctx context.Context, rec audit.Record) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(ctx, rec); err != nil {
		obs.Logger().Warn("audit journal append failed",
			zap.String("record_id", rec.ID),
			zap.String("request_id", audit.RequestIDFromContext(ctx)),
			zap.Error(err))
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func observe(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, validate.ErrInvalid):
		outcome = "invalid"
	case errors.Is(err, auth.ErrForbidden):
		outcome = "forbidden"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrConflict):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	obs.ObserveDirectoryOp(op, outcome)
}
