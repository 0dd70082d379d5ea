package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/benbjohnson/clock"

	"github.com/akinalp/tenantgate/models"
)

// UserRepository extends the generic CRUD contract with the lookups and
// narrow updates the auth flows need.
type UserRepository interface {
	CRUDRepository[models.User, *models.User]
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time, ip string) error
	SetActive(ctx context.Context, userID int64, active bool) error
}

type sqlUserRepo struct {
	CRUDRepository[models.User, *models.User]
}

// NewUserRepo returns the SQL UserRepository.
func NewUserRepo(conns ConnSource, clk clock.Clock) UserRepository {
	return &sqlUserRepo{
		CRUDRepository: NewCRUDRepository[models.User, *models.User](conns, clk),
	}
}

func (r *sqlUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.FindOne(ctx, sq.Eq{"email": models.NormalizeEmail(email)})
}

func (r *sqlUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.UpdateFields(ctx, userID, map[string]any{"password_hash": passwordHash})
}

func (r *sqlUserRepo) UpdateLastLogin(ctx context.Context, userID int64, at time.Time, ip string) error {
	return r.UpdateFields(ctx, userID, map[string]any{
		"last_login_at": at.UTC(),
		"last_login_ip": ip,
	})
}

func (r *sqlUserRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.UpdateFields(ctx, userID, map[string]any{"is_active": active})
}
