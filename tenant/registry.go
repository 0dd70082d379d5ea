package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/akinalp/tenantgate/database"
	"github.com/akinalp/tenantgate/pkg"
)

// Opener constructs the client for one tenant database.
type Opener func(ctx context.Context, name string) (*database.DB, error)

// Registry caches one pooled client per tenant for the life of the process.
//
// Clients are never evicted. MaxTenants, when positive, caps how many
// distinct tenants may be opened; requests for a new tenant beyond the cap
// fail with a config error instead of growing the cache.
type Registry struct {
	open        Opener
	log         *zap.Logger
	maxTenants  int
	pingTimeout time.Duration

	clients sync.Map // tenant name -> *database.DB
	size    atomic.Int64
	group   singleflight.Group

	// mu orders stores of new clients against Close, so a creation that
	// finishes during shutdown is closed instead of cached.
	mu     sync.Mutex
	closed atomic.Bool
}

var errClosed = errors.New("tenant registry is closed")

// Option configures a Registry.
type Option func(*Registry)

// WithMaxTenants caps the number of cached clients. Zero means no cap.
func WithMaxTenants(n int) Option {
	return func(r *Registry) { r.maxTenants = n }
}

// WithPingTimeout bounds the background connectivity check.
func WithPingTimeout(d time.Duration) Option {
	return func(r *Registry) { r.pingTimeout = d }
}

// NewRegistry returns an empty Registry.
func NewRegistry(open Opener, log *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		open:        open,
		log:         log.Named("registry"),
		pingTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Client returns the cached client for id, creating it on first use.
// Concurrent first calls for the same id share a single creation.
func (r *Registry) Client(ctx context.Context, id string) (*database.DB, error) {
	if err := Validate(id); err != nil {
		return nil, err
	}

	if db, ok := r.clients.Load(id); ok {
		return db.(*database.DB), nil
	}

	v, err, _ := r.group.Do(id, func() (any, error) {
		if db, ok := r.clients.Load(id); ok {
			return db, nil
		}
		if r.closed.Load() {
			return nil, errClosed
		}
		if r.maxTenants > 0 && r.size.Load() >= int64(r.maxTenants) {
			r.log.Warn("tenant limit reached", zap.String("tenant", id), zap.Int("max", r.maxTenants))
			return nil, pkg.NewConfigError("TENANT_LIMIT_REACHED", "Too many tenant databases are open.")
		}

		// Creation is shared by every waiting caller, so it must not die
		// with the first caller's request.
		db, err := r.open(context.WithoutCancel(ctx), id)
		if err != nil {
			r.log.Error("failed to open tenant database", zap.String("tenant", id), zap.Error(err))
			return nil, pkg.NewInternalError("DB_CONNECTION_FAILED", err)
		}

		r.mu.Lock()
		if r.closed.Load() {
			r.mu.Unlock()
			_ = db.Close()
			return nil, errClosed
		}
		r.clients.Store(id, db)
		r.size.Add(1)
		r.mu.Unlock()
		r.log.Info("tenant client created", zap.String("tenant", id))

		go r.verify(db)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*database.DB), nil
}

// Conn returns the client of the tenant bound to ctx.
func (r *Registry) Conn(ctx context.Context) (*database.DB, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return nil, pkg.NewConfigError("DB_NAME_MISSING", "Database name not provided.")
	}
	return r.Client(ctx, id)
}

// Len reports how many tenant clients are cached.
func (r *Registry) Len() int {
	return int(r.size.Load())
}

// Close closes every cached client. The registry refuses new tenants
// afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed.Store(true)
	r.mu.Unlock()

	var errs []error
	r.clients.Range(func(key, value any) bool {
		if err := value.(*database.DB).Close(); err != nil {
			errs = append(errs, err)
		}
		r.clients.Delete(key)
		r.size.Add(-1)
		return true
	})
	return errors.Join(errs...)
}

// verify pings a freshly created client. A failure is only logged: the
// client stays cached and later queries report the problem themselves.
func (r *Registry) verify(db *database.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), r.pingTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		r.log.Warn("tenant database unreachable", zap.String("tenant", db.Name), zap.Error(err))
		return
	}
	r.log.Debug("tenant database reachable", zap.String("tenant", db.Name))
}
