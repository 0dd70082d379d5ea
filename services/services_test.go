package services

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/tenantgate/database/dbtest"
	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/email"
	"github.com/akinalp/tenantgate/pkg/password"
	"github.com/akinalp/tenantgate/repository"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) last(t *testing.T) email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

type testEnv struct {
	clk      *clock.Mock
	mailer   *recordingSender
	userRepo repository.UserRepository
	sessions repository.SessionRepository
	users    UserService
	auth     AuthService
	menus    MenuService
	submenus SubmenuService
	perms    RolePermissionService
	roles    RoleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conns := dbtest.Conns{DB: dbtest.NewTestDB(t, "services")}
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	hasher := password.NewHasher(bcrypt.MinCost, 4)
	mailer := &recordingSender{}

	userRepo := repository.NewUserRepo(conns, clk)
	sessions := repository.NewSessionRepo(conns, clk)
	resets := repository.NewPasswordResetRepo(conns)
	menuRepo := repository.NewCRUDRepository[models.Menu, *models.Menu](conns, clk)
	submenuRepo := repository.NewCRUDRepository[models.Submenu, *models.Submenu](conns, clk)
	roleRepo := repository.NewCRUDRepository[models.Role, *models.Role](conns, clk)
	permRepo := repository.NewCRUDRepository[models.RolePermission, *models.RolePermission](conns, clk)

	users := NewUserService(userRepo, hasher)
	auth := NewAuthService(users, userRepo, sessions, resets, repository.NewTransactor(conns),
		hasher, mailer, clk, zaptest.NewLogger(t), AuthConfig{
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
			ResetTokenTTL: 30 * time.Minute,
			Issuer:        "tenantgate",
			FrontEndURL:   "https://app.example.com/",
		})

	return &testEnv{
		clk:      clk,
		mailer:   mailer,
		userRepo: userRepo,
		sessions: sessions,
		users:    users,
		auth:     auth,
		menus:    NewMenuService(menuRepo),
		submenus: NewSubmenuService(submenuRepo, menuRepo),
		roles:    NewRoleService(roleRepo),
		perms:    NewRolePermissionService(permRepo, roleRepo, menuRepo, submenuRepo),
	}
}

func registerRequest(emailAddr string) *models.RegisterRequest {
	return &models.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     emailAddr,
		Password:  "secret1",
		UserType:  models.UserTypeAdmin,
		Category:  models.CategoryAdmin,
	}
}

func requireCode(t *testing.T, err error, kind pkg.Kind, code string) {
	t.Helper()
	var appErr *pkg.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
	require.Equal(t, kind, appErr.Kind)
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var appErr *pkg.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkg.KindValidation, appErr.Kind)
	for _, f := range appErr.Fields {
		if f.Field == field {
			return
		}
	}
	t.Fatalf("no error for field %q in %+v", field, appErr.Fields)
}

// resetTokenFrom pulls the raw token out of the emailed reset link.
func resetTokenFrom(t *testing.T, msg email.Message) string {
	t.Helper()
	link := msg.Variables["reset_url"]
	require.True(t, strings.HasPrefix(link, "https://app.example.com/user/password-reset?token="))
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}
