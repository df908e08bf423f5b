// Package repomanager vends dialect-specific repositories bound to either a
// connection pool or a transaction, and applies the embedded migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/filex"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/recipes"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/tags"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	Tags(db dbx.DBTX) tags.Repository
}

// sqliteParams are appended to every SQLite DSN. Foreign keys are off by
// default in SQLite and cascades depend on them.
var sqliteParams = []string{"_pragma=foreign_keys(1)", "_time_format=sqlite"}

// IsPostgresDSN reports whether dsn selects the PostgreSQL backend.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the database named by dsn and returns the matching
// RepositoryManager. postgres:// and postgresql:// DSNs use pgx, anything
// else is treated as a SQLite path (":memory:" included).
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	if IsPostgresDSN(dsn) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		m, err := NewPostgresRepositoryManager(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, m, nil
	}

	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path != "" && path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
	}

	db, err := sql.Open("sqlite", SQLiteDSN(dsn))
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	m, err := NewSQLiteRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, m, nil
}

// SQLiteDSN adds the connection parameters the repositories rely on unless
// dsn already sets them.
func SQLiteDSN(dsn string) string {
	for _, p := range sqliteParams {
		key, _, _ := strings.Cut(p, "=")
		if strings.Contains(dsn, key+"=") && (key != "_pragma" || strings.Contains(dsn, "foreign_keys")) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + p
		} else {
			dsn += "?" + p
		}
	}
	return dsn
}
