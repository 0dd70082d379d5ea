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

// SessionRepository stores issued access tokens.
type SessionRepository interface {
	// Upsert inserts the session or, when (user_id, token) already exists,
	// reactivates it and refreshes updated_at. The row is read back into s.
	Upsert(ctx context.Context, s *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// DeleteByToken reports whether a row was removed.
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteByUserIDExcept(ctx context.Context, userID int64, keepToken string) error
	ListByUserID(ctx context.Context, userID int64) ([]models.Session, error)
}

type sqlSessionRepo struct {
	conns ConnSource
	clock clock.Clock
}

// NewSessionRepo returns the SQL SessionRepository.
func NewSessionRepo(conns ConnSource, clk clock.Clock) SessionRepository {
	return &sqlSessionRepo{conns: conns, clock: clk}
}

var sessionColumns = []string{"id", "user_id", "token", "is_active", "created_at", "updated_at"}

func (r *sqlSessionRepo) Upsert(ctx context.Context, s *models.Session) error {
	return withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		now := r.clock.Now().UTC()

		query, args, err := db.SQL.Insert("sessions").
			Columns("user_id", "token", "is_active", "created_at", "updated_at").
			Values(s.UserID, s.Token, true, now, now).
			Suffix("ON CONFLICT (user_id, token) DO UPDATE SET is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at RETURNING id").
			ToSql()
		if err != nil {
			return err
		}

		var id int64
		if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to upsert session: %w", err)
		}

		stored, err := r.selectOne(ctx, db, q, sq.Eq{"id": id})
		if err != nil {
			return err
		}
		*s = *stored
		return nil
	})
}

func (r *sqlSessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var s *models.Session
	err := withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		var err error
		s, err = r.selectOne(ctx, db, q, sq.Eq{"token": token})
		return err
	})
	return s, err
}

func (r *sqlSessionRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	var deleted bool
	err := withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Delete("sessions").Where(sq.Eq{"token": token}).ToSql()
		if err != nil {
			return err
		}

		result, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		deleted = affected > 0
		return nil
	})
	return deleted, err
}

func (r *sqlSessionRepo) DeleteByUserIDExcept(ctx context.Context, userID int64, keepToken string) error {
	return withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Delete("sessions").
			Where(sq.Eq{"user_id": userID}).
			Where(sq.NotEq{"token": keepToken}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete user sessions: %w", err)
		}
		return nil
	})
}

func (r *sqlSessionRepo) ListByUserID(ctx context.Context, userID int64) ([]models.Session, error) {
	var sessions []models.Session
	err := withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Select(sessionColumns...).
			From("sessions").
			Where(sq.Eq{"user_id": userID}).
			OrderBy("id").
			ToSql()
		if err != nil {
			return err
		}

		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var s models.Session
			if err := rows.Scan(&s.ID, &s.UserID, &s.Token, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
				return fmt.Errorf("failed to scan session row: %w", err)
			}
			sessions = append(sessions, s)
		}
		return rows.Err()
	})
	return sessions, err
}

func (r *sqlSessionRepo) selectOne(ctx context.Context, db *database.DB, q database.TxQuerier, where sq.Sqlizer) (*models.Session, error) {
	query, args, err := db.SQL.Select(sessionColumns...).From("sessions").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}

	s := &models.Session{}
	err = q.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.UserID, &s.Token, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}
