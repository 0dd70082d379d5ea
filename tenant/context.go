// Package tenant resolves which tenant database a request works against.
//
// Every customer has its own database on the same server, with the same
// schema. A request names its database in the x-db-name header; the
// resolver middleware validates the name and stores it in the request
// context with WithID. From there on the name is only ever read back with
// FromContext. There is no process-wide "current tenant", so two requests
// for different tenants can run side by side without seeing each other.
//
// The Registry turns a name into a database client:
//
//	db, err := registry.Conn(ctx) // tenant taken from ctx
//
// The first request for a tenant opens its pool (and migrates it when
// enabled); every later request gets the cached pool back without taking
// a lock. Concurrent first requests for one tenant share a single open
// through singleflight, so a burst of traffic for a new tenant still
// creates exactly one pool.
//
// Pools are never evicted. A deployment serving an unknown number of
// tenants sets DB_MAX_TENANTS so a flood of made-up names cannot exhaust
// database connections; past the cap, new tenants are refused with
// TENANT_LIMIT_REACHED while existing ones keep working.
package tenant

import (
	"context"
	"regexp"

	"github.com/akinalp/tenantgate/pkg"
)

// Header carries the tenant database name on every request.
const Header = "x-db-name"

type contextKey struct{}

// validName accepts names that are safe both as a Postgres database name
// and as a file name.
var validName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]{0,62}$`)

// WithID returns a copy of ctx bound to tenant id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the tenant bound to ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Validate checks a tenant name before it reaches the database layer.
func Validate(id string) error {
	if id == "" {
		return pkg.NewConfigError("DB_NAME_MISSING", "Database name not provided.")
	}
	if !validName.MatchString(id) {
		return pkg.NewConfigError("DB_NAME_INVALID", "Database name is invalid.")
	}
	return nil
}
