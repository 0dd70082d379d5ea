// Package database opens one tenant database and applies its schema.
//
// Two drivers are supported. Production tenants live on a shared Postgres
// cluster and are served by a pgxpool.Pool per tenant, exposed to the
// repositories as *sql.DB through pgx's stdlib adapter. Local runs and
// tests use one SQLite file per tenant via modernc.org/sqlite. Repositories
// never see the difference: they build SQL with the dialect's squirrel
// builder (DB.SQL) and run it through database/sql.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Options describes how to reach a tenant database. Name is supplied per
// call; everything else is shared by all tenants.
type Options struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	SSLMode      string
	SQLiteDir    string
	PoolMax      int32
	PoolMin      int32
	PoolIdle     time.Duration
	QueryTimeout time.Duration
	AutoMigrate  bool
	Logger       *zap.Logger
}

// DB is one tenant's pooled client.
type DB struct {
	Name    string
	Dialect string
	Conn    *sql.DB
	// SQL builds statements with the dialect's placeholder format.
	SQL sq.StatementBuilderType

	timeout time.Duration
	pool    *pgxpool.Pool
	log     *zap.Logger
}

// Open constructs the client for database name. It does not wait for the
// server to answer; callers verify connectivity with Ping. Schema migration
// runs synchronously when enabled, and always for SQLite.
func Open(ctx context.Context, name string, opts Options) (*DB, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		db  *DB
		err error
	)
	switch opts.Driver {
	case DialectPostgres:
		db, err = openPostgres(ctx, name, opts)
	case DialectSQLite:
		db, err = openSQLite(name, opts)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	db.Name = name
	db.timeout = opts.QueryTimeout
	db.log = log.With(zap.String("tenant", name))

	if opts.AutoMigrate || opts.Driver == DialectSQLite {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate %s: %w", name, err)
		}
	}

	return db, nil
}

func openPostgres(ctx context.Context, name string, opts Options) (*DB, error) {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(opts.User, opts.Password),
		Host:     net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {opts.SSLMode}}.Encode(),
	}

	cfg, err := pgxpool.ParseConfig(dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	cfg.MaxConns = opts.PoolMax
	cfg.MinConns = opts.PoolMin
	if opts.PoolIdle > 0 {
		cfg.MaxConnIdleTime = opts.PoolIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &DB{
		Dialect: DialectPostgres,
		Conn:    stdlib.OpenDBFromPool(pool),
		SQL:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		pool:    pool,
	}, nil
}

func openSQLite(name string, opts Options) (*DB, error) {
	if err := os.MkdirAll(opts.SQLiteDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	path := filepath.Join(opts.SQLiteDir, name+".db")
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.PoolMax > 0 {
		conn.SetMaxOpenConns(int(opts.PoolMax))
	}

	return &DB{
		Dialect: DialectSQLite,
		Conn:    conn,
		SQL:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.Conn.PingContext(ctx)
}

// WithTimeout bounds a single database call. A zero timeout only adds
// cancellation.
func (db *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.timeout)
}

// Close releases the client and, for Postgres, the underlying pool.
func (db *DB) Close() error {
	err := db.Conn.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}
