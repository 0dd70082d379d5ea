package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/email"
)

// ForgotPassword stores a fresh reset request for the account and emails
// the raw token. Only the token's hash is persisted. A delivery failure is
// logged and does not fail the request.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) error {
	req := &models.ForgotPasswordRequest{Email: models.NormalizeEmail(emailAddr)}
	if err := pkg.Validate(req); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, pkg.ErrNotFound) {
		return pkg.NewNotFoundError("USER_NOT_FOUND", "User not found.")
	}
	if err != nil {
		return internal("PASSWORD_RESET_FAILED", err)
	}

	raw := uuid.NewString()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hashResetToken(raw),
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return internal("PASSWORD_RESET_FAILED", err)
	}

	msg := email.Message{
		To:       user.Email,
		Subject:  "Reset your password",
		Template: email.TemplateForgotPassword,
		Variables: map[string]string{
			"first_name": user.FirstName,
			"reset_url":  s.cfg.FrontEndURL + "user/password-reset?token=" + raw,
			"expires_in": fmt.Sprintf("%d minutes", int(math.Round(s.cfg.ResetTokenTTL.Minutes()))),
		},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error("failed to send password reset email", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil
	}

	s.log.Info("password reset requested", zap.Int64("user_id", user.ID))
	return nil
}

// VerifyResetToken returns the owner of token when the latest matching
// request is younger than the reset window.
func (s *authService) VerifyResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, pkg.NewAuthError("TOKEN_NOT_FOUND", "Invalid or expired token.")
	}

	reset, err := s.resets.GetLatestByTokenHash(ctx, hashResetToken(token))
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, pkg.NewAuthError("TOKEN_NOT_FOUND", "Invalid or expired token.")
	}
	if err != nil {
		return nil, internal("TOKEN_VERIFICATION_FAILED", err)
	}

	if s.clock.Now().Sub(reset.CreatedAt) > s.cfg.ResetTokenTTL {
		return nil, pkg.NewAuthError("TOKEN_EXPIRED", "Token has expired.")
	}

	user, err := s.users.GetByID(ctx, reset.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword overwrites the password of userID.
func (s *authService) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return hashFailure("PASSWORD_RESET_FAILED", "password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return internal("PASSWORD_RESET_FAILED", err)
	}
	return nil
}

// ResetPasswordWithToken completes the forgot-password flow. The token is
// consumed: every reset request and session of the user is removed in the
// same transaction as the password update.
func (s *authService) ResetPasswordWithToken(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := pkg.Validate(req); err != nil {
		return err
	}

	user, err := s.VerifyResetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	if req.UserID != 0 && req.UserID != user.ID {
		return pkg.NewAuthError("TOKEN_NOT_FOUND", "Invalid or expired token.")
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return hashFailure("PASSWORD_RESET_FAILED", "newPassword", err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		if err := s.resets.DeleteByUserID(ctx, user.ID); err != nil {
			return err
		}
		return s.sessions.DeleteByUserIDExcept(ctx, user.ID, "")
	})
	if err != nil {
		return internal("PASSWORD_RESET_FAILED", err)
	}
	return nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
