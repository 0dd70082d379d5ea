package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/email"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, registerRequest(" Ada@Example.com "))
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.NotEqual(t, "secret1", user.PasswordHash)
	require.True(t, user.IsActive)

	msg := env.mailer.last(t)
	require.Equal(t, email.TemplateSignup, msg.Template)
	require.Equal(t, "https://app.example.com/login", msg.Variables["login_url"])

	_, err = env.auth.Register(ctx, registerRequest("ada@example.com"))
	requireCode(t, err, pkg.KindConflict, "USER_EXISTS")

	list, err := env.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	req := registerRequest("not-an-email")
	req.Password = "123"
	_, err := env.auth.Register(context.Background(), req)

	var appErr *pkg.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkg.KindValidation, appErr.Kind)
	fields := map[string]bool{}
	for _, f := range appErr.Fields {
		fields[f.Field] = true
	}
	require.True(t, fields["email"])
	require.True(t, fields["password"])
}

func TestPasswordByteLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := registerRequest("ada@example.com")
	req.Password = strings.Repeat("a", 80)
	_, err := env.auth.Register(ctx, req)
	requireFieldError(t, err, "password")

	// 40 runes, 80 bytes.
	req = registerRequest("ada@example.com")
	req.Password = strings.Repeat("é", 40)
	_, err = env.auth.Register(ctx, req)
	requireFieldError(t, err, "password")

	req = registerRequest("ada@example.com")
	req.Password = strings.Repeat("a", 72)
	user, err := env.auth.Register(ctx, req)
	require.NoError(t, err)

	before, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, user.ID, "", &models.ChangePasswordRequest{
		OldPassword: strings.Repeat("a", 72),
		NewPassword: strings.Repeat("b", 80),
	})
	requireFieldError(t, err, "newPassword")

	err = env.auth.ResetPassword(ctx, user.ID, strings.Repeat("c", 80))
	requireFieldError(t, err, "password")

	after, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, before.PasswordHash, after.PasswordHash)

	// An over-long candidate simply fails to match.
	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: strings.Repeat("a", 80)}, "")
	requireCode(t, err, pkg.KindAuth, "INVALID_PASSWORD")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "secret1"}, "10.0.0.1")
	requireCode(t, err, pkg.KindNotFound, "USER_NOT_FOUND")

	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "wrong"}, "10.0.0.1")
	requireCode(t, err, pkg.KindAuth, "INVALID_PASSWORD")

	res, err := env.auth.Login(ctx, &models.LoginRequest{Email: "ADA@example.com", Password: "secret1"}, "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, user.ID, res.User.ID)
	require.NotNil(t, res.User.LastLoginIP)

	session, err := env.auth.GetSession(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, session.UserID)

	claims, err := env.auth.ValidateAccessToken(res.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "tenantgate", claims.Issuer)
	require.Equal(t, models.CategoryAdmin, claims.Category)

	_, err = env.users.SetActive(ctx, user.ID, false)
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "secret1"}, "10.0.0.1")
	requireCode(t, err, pkg.KindAuth, "USER_INACTIVE")
}

func TestValidateAccessToken_Expiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)
	res, err := env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "secret1"}, "")
	require.NoError(t, err)

	env.clk.Add(59 * time.Minute)
	_, err = env.auth.ValidateAccessToken(res.Token)
	require.NoError(t, err)

	env.clk.Add(2 * time.Minute)
	_, err = env.auth.ValidateAccessToken(res.Token)
	requireCode(t, err, pkg.KindAuth, "TOKEN_INVALID")

	_, err = env.auth.ValidateAccessToken("not-a-jwt")
	requireCode(t, err, pkg.KindAuth, "TOKEN_INVALID")
}

func TestSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	first, err := env.auth.IssueSession(ctx, user.ID, "T")
	require.NoError(t, err)
	second, err := env.auth.IssueSession(ctx, user.ID, "T")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, second.IsActive)

	list, err := env.sessions.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := env.auth.InvalidateSession(ctx, "T")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = env.auth.InvalidateSession(ctx, "T")
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = env.auth.GetSession(ctx, "T")
	requireCode(t, err, pkg.KindAuth, "SESSION_NOT_FOUND")
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)
	_, err = env.auth.IssueSession(ctx, user.ID, "current")
	require.NoError(t, err)
	_, err = env.auth.IssueSession(ctx, user.ID, "other-device")
	require.NoError(t, err)

	before, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, user.ID, "current", &models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "secret2"})
	requireCode(t, err, pkg.KindValidation, "INVALID_OLD_PASSWORD")

	err = env.auth.ChangePassword(ctx, user.ID, "current", &models.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret1"})
	requireCode(t, err, pkg.KindValidation, "PASSWORD_SAME_AS_OLD")

	unchanged, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, before.PasswordHash, unchanged.PasswordHash)

	require.NoError(t, env.auth.ChangePassword(ctx, user.ID, "current", &models.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"}))

	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "secret2"}, "")
	require.NoError(t, err)

	_, err = env.auth.GetSession(ctx, "current")
	require.NoError(t, err)
	_, err = env.auth.GetSession(ctx, "other-device")
	requireCode(t, err, pkg.KindAuth, "SESSION_NOT_FOUND")
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	err = env.auth.ForgotPassword(ctx, "nobody@example.com")
	requireCode(t, err, pkg.KindNotFound, "USER_NOT_FOUND")

	require.NoError(t, env.auth.ForgotPassword(ctx, "ada@example.com"))
	msg := env.mailer.last(t)
	require.Equal(t, email.TemplateForgotPassword, msg.Template)
	require.Equal(t, "30 minutes", msg.Variables["expires_in"])
	token := resetTokenFrom(t, msg)
	require.NotEmpty(t, token)

	env.clk.Add(29*time.Minute + 59*time.Second)
	owner, err := env.auth.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, owner.ID)

	_, err = env.auth.VerifyResetToken(ctx, "unknown")
	requireCode(t, err, pkg.KindAuth, "TOKEN_NOT_FOUND")

	err = env.auth.ResetPasswordWithToken(ctx, &models.ResetPasswordRequest{Token: token, UserID: user.ID + 1, NewPassword: "secret2"})
	requireCode(t, err, pkg.KindAuth, "TOKEN_NOT_FOUND")

	require.NoError(t, env.auth.ResetPasswordWithToken(ctx, &models.ResetPasswordRequest{Token: token, UserID: user.ID, NewPassword: "secret2"}))
	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "secret2"}, "")
	require.NoError(t, err)

	_, err = env.auth.VerifyResetToken(ctx, token)
	requireCode(t, err, pkg.KindAuth, "TOKEN_NOT_FOUND")
}

func TestPasswordReset_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)
	require.NoError(t, env.auth.ForgotPassword(ctx, "ada@example.com"))
	token := resetTokenFrom(t, env.mailer.last(t))

	env.clk.Add(30*time.Minute + time.Second)
	_, err = env.auth.VerifyResetToken(ctx, token)
	requireCode(t, err, pkg.KindAuth, "TOKEN_EXPIRED")
}

func TestResetPassword_ByUserID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	err = env.auth.ResetPassword(ctx, user.ID+100, "secret2")
	requireCode(t, err, pkg.KindNotFound, "USER_NOT_FOUND")

	require.NoError(t, env.auth.ResetPassword(ctx, user.ID, "secret2"))
	_, err = env.auth.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "secret2"}, "")
	require.NoError(t, err)
}
