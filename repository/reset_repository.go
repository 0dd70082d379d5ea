package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/akinalp/tenantgate/database"
	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
)

// PasswordResetRepository stores forgot-password requests. Tokens are only
// ever looked up by their hash.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	// GetLatestByTokenHash returns the most recently created request whose
	// hash matches.
	GetLatestByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	DeleteByUserID(ctx context.Context, userID int64) error
}

type sqlResetRepo struct {
	conns ConnSource
}

// NewPasswordResetRepo returns the SQL PasswordResetRepository.
func NewPasswordResetRepo(conns ConnSource) PasswordResetRepository {
	return &sqlResetRepo{conns: conns}
}

func (r *sqlResetRepo) Create(ctx context.Context, reset *models.PasswordReset) error {
	return withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Insert("password_resets").
			Columns("user_id", "reset_token_hash", "created_at").
			Values(reset.UserID, reset.TokenHash, reset.CreatedAt.UTC()).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}

		if err := q.QueryRowContext(ctx, query, args...).Scan(&reset.ID); err != nil {
			return fmt.Errorf("failed to create password reset: %w", err)
		}
		return nil
	})
}

func (r *sqlResetRepo) GetLatestByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	reset := &models.PasswordReset{}
	err := withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Select("id", "user_id", "reset_token_hash", "created_at").
			From("password_resets").
			Where(sq.Eq{"reset_token_hash": tokenHash}).
			OrderBy("created_at DESC", "id DESC").
			Limit(1).
			ToSql()
		if err != nil {
			return err
		}

		err = q.QueryRowContext(ctx, query, args...).Scan(
			&reset.ID, &reset.UserID, &reset.TokenHash, &reset.CreatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return pkg.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get password reset: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reset, nil
}

func (r *sqlResetRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	return withConn(ctx, r.conns, func(ctx context.Context, db *database.DB, q database.TxQuerier) error {
		query, args, err := db.SQL.Delete("password_resets").Where(sq.Eq{"user_id": userID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete password resets: %w", err)
		}
		return nil
	})
}
