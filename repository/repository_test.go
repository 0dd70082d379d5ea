package repository

import (
	"context"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/tenantgate/database/dbtest"
	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
)

func newConns(t *testing.T) dbtest.Conns {
	return dbtest.Conns{DB: dbtest.NewTestDB(t, "repo")}
}

func createUser(t *testing.T, users UserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName:    "Ada",
		Email:        email,
		PasswordHash: "hash",
		UserType:     models.UserTypeAdmin,
		Category:     models.CategoryAdmin,
		IsActive:     true,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestCRUDRepository(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	menus := NewCRUDRepository[models.Menu, *models.Menu](newConns(t), clk)

	m := &models.Menu{Title: "Dashboard", Icon: "home", OrderIndex: 2, Route: "/", Status: true}
	require.NoError(t, menus.Create(ctx, m))
	require.NotZero(t, m.ID)

	got, err := menus.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "Dashboard", got.Title)
	require.True(t, got.Status)
	require.True(t, got.CreatedAt.Equal(clk.Now()))

	require.NoError(t, menus.Create(ctx, &models.Menu{Title: "Settings", OrderIndex: 1}))
	list, err := menus.List(ctx, "order_index")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Settings", list[0].Title)

	exists, err := menus.Exists(ctx, sq.Eq{"title": "Settings"})
	require.NoError(t, err)
	require.True(t, exists)

	clk.Add(time.Minute)
	got.Title = "Home"
	require.NoError(t, menus.Update(ctx, got))
	got, err = menus.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "Home", got.Title)
	require.True(t, got.UpdatedAt.After(got.CreatedAt))

	require.NoError(t, menus.UpdateFields(ctx, m.ID, map[string]any{"status": false}))
	got, err = menus.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.False(t, got.Status)

	require.NoError(t, menus.Delete(ctx, m.ID))
	_, err = menus.GetByID(ctx, m.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)
	require.ErrorIs(t, menus.Delete(ctx, m.ID), pkg.ErrNotFound)
	require.ErrorIs(t, menus.UpdateFields(ctx, m.ID, map[string]any{"status": true}), pkg.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	users := NewUserRepo(newConns(t), clk)

	u := createUser(t, users, "ada@example.com")

	got, err := users.GetByEmail(ctx, " ADA@example.com ")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Nil(t, got.LastLoginAt)

	err = users.Create(ctx, &models.User{
		FirstName: "Other", Email: "ada@example.com", PasswordHash: "x",
		UserType: models.UserTypeFrontend, Category: models.CategoryStudent,
	})
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)

	require.NoError(t, users.UpdatePassword(ctx, u.ID, "new-hash"))
	require.NoError(t, users.UpdateLastLogin(ctx, u.ID, clk.Now(), "10.0.0.1"))
	require.NoError(t, users.SetActive(ctx, u.ID, false))

	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.False(t, got.IsActive)
	require.NotNil(t, got.LastLoginIP)
	require.Equal(t, "10.0.0.1", *got.LastLoginIP)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	conns := newConns(t)
	users := NewUserRepo(conns, clk)
	sessions := NewSessionRepo(conns, clk)

	u := createUser(t, users, "ada@example.com")

	first := &models.Session{UserID: u.ID, Token: "tok-1"}
	require.NoError(t, sessions.Upsert(ctx, first))
	require.True(t, first.IsActive)

	clk.Add(time.Second)
	again := &models.Session{UserID: u.ID, Token: "tok-1"}
	require.NoError(t, sessions.Upsert(ctx, again))
	require.Equal(t, first.ID, again.ID, "same pair is updated in place")
	require.True(t, again.UpdatedAt.After(first.UpdatedAt))

	require.NoError(t, sessions.Upsert(ctx, &models.Session{UserID: u.ID, Token: "tok-2"}))
	list, err := sessions.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := sessions.GetByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)

	require.NoError(t, sessions.DeleteByUserIDExcept(ctx, u.ID, "tok-2"))
	_, err = sessions.GetByToken(ctx, "tok-1")
	require.ErrorIs(t, err, pkg.ErrNotFound)

	deleted, err := sessions.DeleteByToken(ctx, "tok-2")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = sessions.DeleteByToken(ctx, "tok-2")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestPasswordResetRepository(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	conns := newConns(t)
	u := createUser(t, NewUserRepo(conns, clk), "ada@example.com")
	resets := NewPasswordResetRepo(conns)

	older := &models.PasswordReset{UserID: u.ID, TokenHash: "h", CreatedAt: clk.Now()}
	require.NoError(t, resets.Create(ctx, older))
	clk.Add(time.Minute)
	newer := &models.PasswordReset{UserID: u.ID, TokenHash: "h", CreatedAt: clk.Now()}
	require.NoError(t, resets.Create(ctx, newer))

	got, err := resets.GetLatestByTokenHash(ctx, "h")
	require.NoError(t, err)
	require.Equal(t, newer.ID, got.ID)

	require.NoError(t, resets.DeleteByUserID(ctx, u.ID))
	_, err = resets.GetLatestByTokenHash(ctx, "h")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestTransactor(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	conns := newConns(t)
	users := NewUserRepo(conns, clk)
	tx := NewTransactor(conns)

	u := createUser(t, users, "ada@example.com")

	err := tx.InTx(ctx, func(ctx context.Context) error {
		if err := users.UpdatePassword(ctx, u.ID, "rolled-back"); err != nil {
			return err
		}
		return pkg.ErrBadRequest
	})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "hash", got.PasswordHash)

	require.NoError(t, tx.InTx(ctx, func(ctx context.Context) error {
		return users.UpdatePassword(ctx, u.ID, "committed")
	}))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "committed", got.PasswordHash)
}
