package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/handlers"
	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
)

// SessionAuthenticator is the slice of the auth service the gate needs.
type SessionAuthenticator interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// AuthMiddleware admits requests carrying a live session token.
type AuthMiddleware struct {
	auth SessionAuthenticator
	log  *zap.Logger
}

// NewAuthMiddleware returns the gate. auth is normally the AuthService; the
// middleware only needs its session lookup and token check.
func NewAuthMiddleware(auth SessionAuthenticator, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, log: log.Named("auth")}
}

// Require rejects the request with 401 unless its bearer token has a
// session in the tenant database and a valid signature. The session is
// checked first: a logged-out token is refused even before it expires.
//
// Must run after TenantMiddleware.Resolve.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := handlers.BearerToken(r)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "TOKEN_REQUIRED",
				"Access denied. Token is required for authentication.")
			return
		}

		session, err := m.auth.GetSession(r.Context(), token)
		if err != nil {
			if errors.Is(err, pkg.ErrUnauthorized) {
				denyInvalid(w)
				return
			}
			m.log.Error("session lookup failed", zap.Error(err))
			pkg.Error(w, err)
			return
		}
		if !session.IsActive {
			denyInvalid(w)
			return
		}

		claims, err := m.auth.ValidateAccessToken(token)
		if err != nil || claims.UserID != session.UserID {
			denyInvalid(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithAuth(r.Context(), claims, token)))
	})
}

func denyInvalid(w http.ResponseWriter) {
	pkg.ErrorWithMessage(w, http.StatusUnauthorized, "TOKEN_INVALID", "Access denied. Invalid or expired token.")
}
