package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Errors tolerated when a half-applied migration is replayed.
var recoverableErrors = []string{
	"duplicate column name", // sqlite
	"already exists",        // postgres
}

// Migrate applies the embedded schema files of the database's dialect that
// are not yet recorded in schema_migrations. Files run in name order.
func (db *DB) Migrate(ctx context.Context) error {
	files, err := fs.Sub(migrationsFS, "migrations/"+db.Dialect)
	if err != nil {
		return fmt.Errorf("no migrations for dialect %s: %w", db.Dialect, err)
	}

	if _, err := db.Conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(files, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := db.execStatements(ctx, file, string(content)); err != nil {
			return err
		}

		query, args, err := db.SQL.Insert("schema_migrations").Columns("filename").Values(file).ToSql()
		if err != nil {
			return err
		}
		if _, err := db.Conn.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		db.log.Info("migration applied", zap.String("file", file))
	}

	return nil
}

func (db *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := db.Conn.QueryContext(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (db *DB) execStatements(ctx context.Context, filename, content string) error {
	for i, stmt := range splitStatements(content) {
		if _, err := db.Conn.ExecContext(ctx, stmt); err != nil {
			if isRecoverable(err) {
				db.log.Warn("migration statement skipped",
					zap.String("file", filename), zap.Int("statement", i+1), zap.Error(err))
				continue
			}
			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}
	return nil
}

func isRecoverable(err error) bool {
	msg := err.Error()
	for _, pattern := range recoverableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// splitStatements splits on semicolons outside single-quoted literals.
// Lines starting with "--" are dropped.
func splitStatements(sql string) []string {
	var (
		statements []string
		current    strings.Builder
		inString   bool
	)

	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if ch == '\'' {
				if inString && i+1 < len(line) && line[i+1] == '\'' {
					current.WriteString("''")
					i++
					continue
				}
				inString = !inString
			}
			if ch == ';' && !inString {
				if s := strings.TrimSpace(current.String()); s != "" {
					statements = append(statements, s)
				}
				current.Reset()
				continue
			}
			current.WriteByte(ch)
		}
		current.WriteByte('\n')
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		statements = append(statements, s)
	}
	return statements
}
