package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts the account, assigning an id and creation time when unset.
func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO accounts (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.Name, a.Password, a.IsActive, a.IsStaff, a.IsSuperuser, nullTime(a.LastLogin), a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return a, nil
}

// GetByID returns common.ErrorNotFound when no account has the id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE id = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail matches the stored email exactly.
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE email = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, id string, password string) error {
	return r.exec(ctx, `UPDATE accounts SET password = ? WHERE id = ?`, password, id)
}

func (r *SQLiteRepository) UpdateFlags(ctx context.Context, id string, flags models.AccountFlags) error {
	return r.exec(ctx,
		`UPDATE accounts SET is_active = ?, is_staff = ?, is_superuser = ? WHERE id = ?`,
		flags.IsActive, flags.IsStaff, flags.IsSuperuser, id)
}

func (r *SQLiteRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_login = ? WHERE id = ?`, at, id)
}

// Delete removes the account; recipes, tags and their links cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM accounts WHERE id = ?`, id)
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}
