package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/services"
)

// UserHandler serves the /users routes. All of them sit behind the auth
// middleware.
type UserHandler struct {
	userService services.UserService
	authService services.AuthService
	log         *zap.Logger
}

func NewUserHandler(userService services.UserService, authService services.AuthService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		log:         log.Named("users"),
	}
}

// List godoc
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	if len(users) == 0 {
		pkg.JSON(w, http.StatusOK, "No users found.", []*models.User{})
		return
	}
	pkg.JSON(w, http.StatusOK, "Users fetched successfully.", users)
}

// Get godoc
// GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, "User fetched successfully.", user)
}

// SetStatus godoc
// PATCH /users/{id}/status
// Body: { "is_active": false }
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.UserStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := pkg.Validate(&req); err != nil {
		writeError(h.log, w, r, err)
		return
	}

	user, err := h.userService.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, "User status updated successfully.", user)
}

// ChangePassword godoc
// POST /users/change-password
// Body: { "oldPassword": "...", "newPassword": "..." }
//
// The caller's other sessions are revoked; the token used for this request
// stays valid.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "TOKEN_REQUIRED", "Access denied. Token is required for authentication.")
		return
	}

	var req models.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), claims.UserID, TokenFromContext(r.Context()), &req); err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, "Password changed successfully.", nil)
}
