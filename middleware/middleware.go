// Package middleware holds the layers a request passes through before it
// reaches a handler.
//
// Every middleware is a func(next http.Handler) http.Handler. It does its
// own work and then either calls next or writes the error envelope and
// stops, so nothing behind it runs.
//
// Two kinds live here. Global layers wrap the whole mux in main:
//
//	Recover -> Logging -> CORS -> mux
//
// Recover is outermost so a panic anywhere, logging included, still turns
// into a 500 envelope. Logging sits outside CORS so preflight requests are
// counted too.
//
// Route layers are applied per pattern in init_routes.go:
//
//	/auth/*                 TenantMiddleware.Resolve
//	/users, /menu, /role..  TenantMiddleware.Resolve -> AuthMiddleware.Require
//	/health, /metrics       none
//
// The order matters: the auth gate looks sessions up in the tenant
// database, so the tenant has to be bound to the context first. Handlers
// read what the layers found through tenant.FromContext and
// handlers.ClaimsFromContext; no middleware writes package-level state.
package middleware

import "net/http"

// Chain applies mws so the first one is outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
