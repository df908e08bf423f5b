package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/migrations"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/recipes"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/tags"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories. The *sql.DB it
// serves is expected to come from Open, which enables foreign keys.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Recipes(db dbx.DBTX) recipes.Repository {
	return recipes.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "sqlite3", migrations.SQLiteDir)
}

func NewSQLiteRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &SQLiteRepositoryManager{}, nil
}
