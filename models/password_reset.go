package models

import "time"

// PasswordReset is one forgot-password request. Only the SHA-256 of the
// emailed token is stored.
type PasswordReset struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyResetTokenRequest is the body of POST /auth/verify-reset-token.
type VerifyResetTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password. UserID is
// optional; when present it must match the token's owner.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	UserID      int64  `json:"userId"`
	NewPassword string `json:"newPassword" validate:"required,min=6,maxbytes=72"`
}
