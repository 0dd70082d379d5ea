package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/email"
	"github.com/akinalp/tenantgate/pkg/password"
	"github.com/akinalp/tenantgate/repository"
)

// AuthService covers credentials, sessions and password recovery.
// Handlers and the auth middleware depend on this interface only.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest, ip string) (*LoginResult, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)

	// IssueSession records token for userID. Issuing the same pair twice
	// leaves one active row.
	IssueSession(ctx context.Context, userID int64, token string) (*models.Session, error)
	GetSession(ctx context.Context, token string) (*models.Session, error)
	// InvalidateSession reports whether a session was removed.
	InvalidateSession(ctx context.Context, token string) (bool, error)

	ForgotPassword(ctx context.Context, emailAddr string) error
	VerifyResetToken(ctx context.Context, token string) (*models.User, error)
	ResetPassword(ctx context.Context, userID int64, newPassword string) error
	ResetPasswordWithToken(ctx context.Context, req *models.ResetPasswordRequest) error
	// ChangePassword revokes every session of the user except keepToken.
	ChangePassword(ctx context.Context, userID int64, keepToken string, req *models.ChangePasswordRequest) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthConfig carries the settings authService needs from config.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	Issuer        string
	FrontEndURL   string
}

type authService struct {
	users     UserService
	userRepo  repository.UserRepository
	sessions  repository.SessionRepository
	resets    repository.PasswordResetRepository
	tx        repository.Transactor
	hasher    *password.Hasher
	mailer    email.Sender
	clock     clock.Clock
	log       *zap.Logger
	jwtSecret []byte
	cfg       AuthConfig
}

// NewAuthService wires the credential flows. users handles account
// creation so registration shares its uniqueness check; mailer failures
// are logged and never fail a request.
func NewAuthService(
	users UserService,
	userRepo repository.UserRepository,
	sessions repository.SessionRepository,
	resets repository.PasswordResetRepository,
	tx repository.Transactor,
	hasher *password.Hasher,
	mailer email.Sender,
	clk clock.Clock,
	log *zap.Logger,
	cfg AuthConfig,
) AuthService {
	return &authService{
		users:     users,
		userRepo:  userRepo,
		sessions:  sessions,
		resets:    resets,
		tx:        tx,
		hasher:    hasher,
		mailer:    mailer,
		clock:     clk,
		log:       log.Named("auth"),
		jwtSecret: []byte(cfg.JWTSecret),
		cfg:       cfg,
	}
}

// Register creates the account and sends the welcome email. A mail failure
// is logged and does not fail the registration.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	msg := email.Message{
		To:       user.Email,
		Subject:  "Welcome",
		Template: email.TemplateSignup,
		Variables: map[string]string{
			"first_name": user.FirstName,
			"login_url":  s.cfg.FrontEndURL + "login",
		},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("failed to send signup email", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest, ip string) (*LoginResult, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := pkg.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, pkg.NewNotFoundError("USER_NOT_FOUND", "User not found.")
	}
	if err != nil {
		return nil, internal("LOGIN_FAILED", err)
	}

	if !user.IsActive {
		return nil, pkg.NewAuthError("USER_INACTIVE", "User account is inactive.")
	}

	ok, err := s.hasher.Verify(ctx, req.Password, user.PasswordHash)
	if err != nil {
		return nil, internal("LOGIN_FAILED", err)
	}
	if !ok {
		return nil, pkg.NewAuthError("INVALID_PASSWORD", "Invalid password.")
	}

	token, err := s.signToken(user)
	if err != nil {
		return nil, internal("LOGIN_FAILED", err)
	}

	if _, err := s.IssueSession(ctx, user.ID, token); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now, ip); err != nil {
		s.log.Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
		user.LastLoginIP = &ip
	}

	return &LoginResult{Token: token, User: user}, nil
}

// ValidateAccessToken checks the signature and expiry of an HS256 token.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, &pkg.AppError{Kind: pkg.KindAuth, Code: "TOKEN_INVALID", Message: "Access denied. Invalid or expired token.", Err: err}
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, pkg.NewAuthError("TOKEN_INVALID", "Access denied. Invalid or expired token.")
	}
	return claims, nil
}

// ─── Sessions ───

func (s *authService) IssueSession(ctx context.Context, userID int64, token string) (*models.Session, error) {
	session := &models.Session{UserID: userID, Token: token}
	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, internal("SESSION_CREATION_FAILED", err)
	}
	return session, nil
}

func (s *authService) GetSession(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, pkg.NewAuthError("SESSION_NOT_FOUND", "Session not found.")
	}
	if err != nil {
		return nil, internal("SESSION_FETCH_FAILED", err)
	}
	return session, nil
}

func (s *authService) InvalidateSession(ctx context.Context, token string) (bool, error) {
	deleted, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		return false, internal("LOGOUT_FAILED", err)
	}
	return deleted, nil
}

// ─── Passwords ───

func (s *authService) ChangePassword(ctx context.Context, userID int64, keepToken string, req *models.ChangePasswordRequest) error {
	if err := pkg.Validate(req); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(ctx, req.OldPassword, user.PasswordHash)
	if err != nil {
		return internal("PASSWORD_CHANGE_FAILED", err)
	}
	if !ok {
		return businessError("INVALID_OLD_PASSWORD", "Old password is incorrect.")
	}

	if req.NewPassword == req.OldPassword {
		return businessError("PASSWORD_SAME_AS_OLD", "New password must be different from the old password.")
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return hashFailure("PASSWORD_CHANGE_FAILED", "newPassword", err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return s.sessions.DeleteByUserIDExcept(ctx, userID, keepToken)
	})
	if err != nil {
		return internal("PASSWORD_CHANGE_FAILED", err)
	}
	return nil
}

// ─── Private Helpers ───

func (s *authService) signToken(user *models.User) (string, error) {
	now := s.clock.Now()
	claims := &models.TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserType:  user.UserType,
		Category:  user.Category,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
