package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/ratelimit"
	"github.com/akinalp/tenantgate/services"
)

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
	clientIP     *ratelimit.IPExtractor
	log          *zap.Logger
}

// NewAuthHandler returns the /auth handler. A nil loginLimiter disables
// login throttling; a nil clientIP keys attempts on the TCP peer address.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter, clientIP *ratelimit.IPExtractor, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
		clientIP:     clientIP,
		log:          log.Named("auth"),
	}
}

// Register godoc
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, "User registered successfully.", user)
}

// Login godoc
// POST /auth/login
//
// Attempts are throttled per client IP; a successful login clears the
// counter.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := h.clientIP.ClientIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS",
			"Too many login attempts, please try again in "+ratelimit.FormatRetryMessage(retryAfter)+".")
		return
	}

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), &req, ip)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, "Login successful.", result)
}

// Logout godoc
// GET /auth/logout
//
// The bearer token is optional and the response is 200 either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := BearerToken(r); ok {
		if _, err := h.authService.InvalidateSession(r.Context(), token); err != nil {
			h.log.Warn("failed to invalidate session", zap.Error(err))
		}
	}

	pkg.JSON(w, http.StatusOK, "Logout successful.", nil)
}

// ForgotPassword godoc
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(h.log, w, r, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Password reset link sent to your email.", nil)
}

// VerifyResetToken godoc
// POST /auth/verify-reset-token
func (h *AuthHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyResetTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.VerifyResetToken(r.Context(), req.Token)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Token is valid.", map[string]any{"user": user})
}

// ResetPassword godoc
// POST /auth/reset-password
// Body: { "token": "...", "userId": 1, "newPassword": "..." }
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPasswordWithToken(r.Context(), &req); err != nil {
		writeError(h.log, w, r, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Password reset successfully.", nil)
}
