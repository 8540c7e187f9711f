package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phonebook.org/internal/audit"
	"phonebook.org/internal/directory"
)

func (s *Store) Add(ctx context.Context, entry directory.Entry, rec audit.Record) (directory.Entry, error) {
	if err := rec.Validate(); err != nil {
		return directory.Entry{}, err
	}
	err := s.withTx(ctx, func(ctx context.Context, tx dbtx) error {
		var (
			res sql.Result
			err error
		)
		if s.uniquePhone {
			// Serializes adds of the same number until commit, so the
			// not-exists check below sees any concurrent insert.
			if _, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock(hashtext($1))`, entry.PhoneNumber); err != nil {
				return fmt.Errorf("lock phone number: %w", err)
			}
			res, err = tx.ExecContext(ctx, `
				insert into directory_entries (id, name, phone_number)
				select $1::text, $2::text, $3::text
				where not exists (select 1 from directory_entries where phone_number = $3::text)
			`, entry.ID, entry.Name, entry.PhoneNumber)
		} else {
			res, err = tx.ExecContext(ctx, `
				insert into directory_entries (id, name, phone_number)
				values ($1, $2, $3)
			`, entry.ID, entry.Name, entry.PhoneNumber)
		}
		if err != nil {
			if isUniqueViolation(err) {
				return directory.ErrConflict
			}
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return directory.ErrConflict
		}
		return appendRecord(ctx, tx, rec)
	})
	if err != nil {
		return directory.Entry{}, err
	}
	return entry, nil
}

func (s *Store) List(ctx context.Context, rec audit.Record) ([]directory.Entry, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	var out []directory.Entry
	err := s.withTx(ctx, func(ctx context.Context, tx dbtx) error {
		rows, err := tx.QueryContext(ctx, `
			select id, name, phone_number
			from directory_entries
			order by seq
		`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e directory.Entry
			if err := rows.Scan(&e.ID, &e.Name, &e.PhoneNumber); err != nil {
				return err
			}
			out = append(out, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return appendRecord(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []directory.Entry{}
	}
	return out, nil
}

func (s *Store) DeleteByName(ctx context.Context, name string, rec audit.Record) (directory.Entry, error) {
	return s.deleteFirst(ctx, "name", name, rec)
}

func (s *Store) DeleteByNumber(ctx context.Context, phone string, rec audit.Record) (directory.Entry, error) {
	return s.deleteFirst(ctx, "phone_number", phone, rec)
}

// deleteFirst removes the oldest row where column equals value. column is
// one of two fixed identifiers, never caller input.
func (s *Store) deleteFirst(ctx context.Context, column, value string, rec audit.Record) (directory.Entry, error) {
	if err := rec.Validate(); err != nil {
		return directory.Entry{}, err
	}
	var deleted directory.Entry
	err := s.withTx(ctx, func(ctx context.Context, tx dbtx) error {
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`
			delete from directory_entries
			where id = (
				select id from directory_entries
				where %s = $1
				order by seq
				limit 1
				for update
			)
			returning id, name, phone_number
		`, column), value).Scan(&deleted.ID, &deleted.Name, &deleted.PhoneNumber)
		if errors.Is(err, sql.ErrNoRows) {
			return directory.ErrNotFound
		}
		if err != nil {
			return err
		}
		return appendRecord(ctx, tx, rec)
	})
	if err != nil {
		return directory.Entry{}, err
	}
	return deleted, nil
}

// Records returns the audit trail in append order.
func (s *Store) Records(ctx context.Context) ([]audit.Record, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, coalesce(actor_id, ''), actor, action, detail, occurred_at
		from audit_records
		order by seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []audit.Record{}
	for rows.Next() {
		var r audit.Record
		if err := rows.Scan(&r.ID, &r.ActorID, &r.Actor, &r.Action, &r.Detail, &r.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func appendRecord(ctx context.Context, tx dbtx, rec audit.Record) error {
	_, err := tx.ExecContext(ctx, `
		insert into audit_records (id, actor_id, actor, action, detail, occurred_at)
		values ($1, nullif($2, ''), $3, $4, $5, $6)
	`, rec.ID, rec.ActorID, rec.Actor, rec.Action, rec.Detail, rec.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}
