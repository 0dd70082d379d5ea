package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/database"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/tenant"
)

// ClientSource opens or returns the cached client of a tenant.
type ClientSource interface {
	Client(ctx context.Context, id string) (*database.DB, error)
}

// TenantMiddleware binds the request to the tenant named by the x-db-name
// header, falling back to the configured default database.
type TenantMiddleware struct {
	clients     ClientSource
	defaultName string
	log         *zap.Logger
}

// NewTenantMiddleware returns the resolver. An empty defaultName makes the
// header mandatory.
func NewTenantMiddleware(clients ClientSource, defaultName string, log *zap.Logger) *TenantMiddleware {
	return &TenantMiddleware{
		clients:     clients,
		defaultName: defaultName,
		log:         log.Named("tenant"),
	}
}

// Resolve makes sure the tenant's client exists before the handler runs,
// so an unknown or unreachable database fails fast.
func (m *TenantMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(tenant.Header))
		if id == "" {
			id = m.defaultName
		}

		if _, err := m.clients.Client(r.Context(), id); err != nil {
			if appErr := pkg.AsAppError(err); appErr.Kind == pkg.KindInternal {
				m.log.Error("failed to resolve tenant", zap.String("tenant", id), zap.Error(err))
			}
			pkg.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithID(r.Context(), id)))
	})
}
