package handlers

import (
	"net/http"

	"github.com/akinalp/tenantgate/pkg"
)

// HealthHandler reports liveness and how many tenant clients are open.
type HealthHandler struct {
	tenants func() int
}

func NewHealthHandler(tenants func() int) *HealthHandler {
	return &HealthHandler{tenants: tenants}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, "OK", map[string]any{
		"status":  "ok",
		"tenants": h.tenants(),
	})
}
