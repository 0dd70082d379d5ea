// Package main: HTTP route registration.
//
// initRoutes binds every endpoint to the mux. Chain helpers:
//   - tenantOnly: resolve the tenant database
//   - auth: tenantOnly + session token check
package main

import (
	"net/http"

	"github.com/akinalp/tenantgate/middleware"
)

// crudRoutes is implemented by handlers.CRUDHandler for every entity.
type crudRoutes interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	SetStatus(w http.ResponseWriter, r *http.Request)
}

// initRoutes wires the handlers. Literal paths such as
// /users/change-password are registered next to their parametric siblings;
// the mux prefers the more specific pattern.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	tenantMw *middleware.TenantMiddleware,
	authMw *middleware.AuthMiddleware,
	metricsHandler http.Handler,
) {
	// ─── Middleware Chain Helpers ───
	tenantOnly := func(handler http.HandlerFunc) http.Handler {
		return tenantMw.Resolve(handler)
	}
	auth := func(handler http.HandlerFunc) http.Handler {
		return tenantMw.Resolve(authMw.Require(handler))
	}

	// ─── Operational ───
	mux.HandleFunc("GET /health", h.Health.Health)
	mux.Handle("GET /metrics", metricsHandler)

	// ─── Auth ───
	mux.Handle("POST /auth/register", tenantOnly(h.Auth.Register))
	mux.Handle("POST /auth/login", tenantOnly(h.Auth.Login))
	mux.Handle("GET /auth/logout", tenantOnly(h.Auth.Logout))
	mux.Handle("POST /auth/forgot-password", tenantOnly(h.Auth.ForgotPassword))
	mux.Handle("POST /auth/verify-reset-token", tenantOnly(h.Auth.VerifyResetToken))
	mux.Handle("POST /auth/reset-password", tenantOnly(h.Auth.ResetPassword))

	// ─── Users ───
	mux.Handle("GET /users", auth(h.User.List))
	mux.Handle("POST /users/change-password", auth(h.User.ChangePassword))
	mux.Handle("GET /users/{id}", auth(h.User.Get))
	mux.Handle("PATCH /users/{id}/status", auth(h.User.SetStatus))

	// ─── Back-office entities ───
	registerCRUD(mux, "/menu", h.Menu, auth, true)
	registerCRUD(mux, "/submenu", h.Submenu, auth, true)
	registerCRUD(mux, "/role", h.Role, auth, true)
	registerCRUD(mux, "/role-permission", h.RolePermission, auth, false)
}

func registerCRUD(mux *http.ServeMux, base string, h crudRoutes, wrap func(http.HandlerFunc) http.Handler, withStatus bool) {
	mux.Handle("GET "+base, wrap(h.List))
	mux.Handle("POST "+base, wrap(h.Create))
	mux.Handle("GET "+base+"/{id}", wrap(h.Get))
	mux.Handle("PUT "+base+"/{id}", wrap(h.Update))
	mux.Handle("DELETE "+base+"/{id}", wrap(h.Delete))
	if withStatus {
		mux.Handle("PATCH "+base+"/{id}/status", wrap(h.SetStatus))
	}
}
