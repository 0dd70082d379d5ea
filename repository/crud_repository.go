package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/benbjohnson/clock"

	"github.com/akinalp/tenantgate/database"
	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
)

// RecordPtr constrains P to be *T and a models.Record.
type RecordPtr[T any] interface {
	*T
	models.Record
}

// CRUDRepository is the storage contract shared by every plain CRUD entity.
// Lookups that find nothing return pkg.ErrNotFound; inserts that hit a
// unique index return pkg.ErrAlreadyExists.
type CRUDRepository[T any, P RecordPtr[T]] interface {
	Create(ctx context.Context, rec P) error
	GetByID(ctx context.Context, id int64) (P, error)
	FindOne(ctx context.Context, where sq.Sqlizer) (P, error)
	Exists(ctx context.Context, where sq.Sqlizer) (bool, error)
	List(ctx context.Context, orderBy ...string) ([]P, error)
	Update(ctx context.Context, rec P) error
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type sqlCRUDRepo[T any, P RecordPtr[T]] struct {
	conns ConnSource
	clock clock.Clock
	table string
}

// NewCRUDRepository returns the SQL implementation for entity T.
func NewCRUDRepository[T any, P RecordPtr[T]](conns ConnSource, clk clock.Clock) CRUDRepository[T, P] {
	var zero T
	return &sqlCRUDRepo[T, P]{
		conns: conns,
		clock: clk,
		table: P(&zero).TableName(),
	}
}

func (r *sqlCRUDRepo[T, P]) Create(ctx context.Context, rec P) error {
	return withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		now := r.clock.Now().UTC()
		meta := rec.Meta()

		query, args, err := db.SQL.Insert(r.table).
			Columns(append(rec.Columns(), "created_at", "updated_at")...).
			Values(append(rec.Values(), now, now)...).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}

		if err := q.QueryRowContext(ctx, query, args...).Scan(&meta.ID); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", pkg.ErrAlreadyExists, r.table)
			}
			return fmt.Errorf("failed to insert into %s: %w", r.table, err)
		}

		meta.CreatedAt, meta.UpdatedAt = now, now
		return nil
	})
}

func (r *sqlCRUDRepo[T, P]) GetByID(ctx context.Context, id int64) (P, error) {
	return r.FindOne(ctx, sq.Eq{"id": id})
}

func (r *sqlCRUDRepo[T, P]) FindOne(ctx context.Context, where sq.Sqlizer) (P, error) {
	var rec P
	err := withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Select(selectColumns[T, P]()...).
			From(r.table).
			Where(where).
			Limit(1).
			ToSql()
		if err != nil {
			return err
		}

		rec = P(new(T))
		err = q.QueryRowContext(ctx, query, args...).Scan(scanTargets(rec)...)
		if errors.Is(err, sql.ErrNoRows) {
			return pkg.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", r.table, err)
		}
		return nil
	})
	if err != nil {
		var zero P
		return zero, err
	}
	return rec, nil
}

func (r *sqlCRUDRepo[T, P]) Exists(ctx context.Context, where sq.Sqlizer) (bool, error) {
	var count int
	err := withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Select("COUNT(*)").From(r.table).Where(where).ToSql()
		if err != nil {
			return err
		}
		if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return fmt.Errorf("failed to count %s: %w", r.table, err)
		}
		return nil
	})
	return count > 0, err
}

func (r *sqlCRUDRepo[T, P]) List(ctx context.Context, orderBy ...string) ([]P, error) {
	if len(orderBy) == 0 {
		orderBy = []string{"id"}
	}

	var out []P
	err := withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Select(selectColumns[T, P]()...).
			From(r.table).
			OrderBy(orderBy...).
			ToSql()
		if err != nil {
			return err
		}

		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", r.table, err)
		}
		defer rows.Close()

		for rows.Next() {
			rec := P(new(T))
			if err := rows.Scan(scanTargets(rec)...); err != nil {
				return fmt.Errorf("failed to scan %s row: %w", r.table, err)
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

func (r *sqlCRUDRepo[T, P]) Update(ctx context.Context, rec P) error {
	fields := make(map[string]any)
	values := rec.Values()
	for i, col := range rec.Columns() {
		fields[col] = values[i]
	}
	if err := r.UpdateFields(ctx, rec.Meta().ID, fields); err != nil {
		return err
	}
	rec.Meta().UpdatedAt = r.clock.Now().UTC()
	return nil
}

func (r *sqlCRUDRepo[T, P]) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	return withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		set := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			set[k] = v
		}
		set["updated_at"] = r.clock.Now().UTC()

		query, args, err := db.SQL.Update(r.table).SetMap(set).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}

		result, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", pkg.ErrAlreadyExists, r.table)
			}
			return fmt.Errorf("failed to update %s: %w", r.table, err)
		}
		return requireAffected(result)
	})
}

func (r *sqlCRUDRepo[T, P]) Delete(ctx context.Context, id int64) error {
	return withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Delete(r.table).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}

		result, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", r.table, err)
		}
		return requireAffected(result)
	})
}

// ─── Private Helpers ───

func selectColumns[T any, P RecordPtr[T]]() []string {
	cols := append([]string{"id"}, P(new(T)).Columns()...)
	return append(cols, "created_at", "updated_at")
}

func scanTargets(rec models.Record) []any {
	meta := rec.Meta()
	targets := append([]any{&meta.ID}, rec.Fields()...)
	return append(targets, &meta.CreatedAt, &meta.UpdatedAt)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
