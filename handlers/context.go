// Package handlers turns HTTP requests into service calls.
//
// Handlers stay thin: decode the body, call the service, write the
// envelope. Business rules live in services and nothing here touches the
// database.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/tenantgate/models"
)

type contextKey string

const (
	// ClaimsContextKey holds the *models.TokenClaims of the caller.
	ClaimsContextKey contextKey = "claims"
	// TokenContextKey holds the raw bearer token of the caller.
	TokenContextKey contextKey = "token"
)

// WithAuth binds the authenticated caller to ctx.
func WithAuth(ctx context.Context, claims *models.TokenClaims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsContextKey, claims)
	return context.WithValue(ctx, TokenContextKey, token)
}

// ClaimsFromContext returns the caller set by the auth middleware.
func ClaimsFromContext(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*models.TokenClaims)
	return claims, ok && claims != nil
}

// TokenFromContext returns the bearer token the caller authenticated with.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
