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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO accounts (id, email, name, password, is_active, is_staff, is_superuser, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Email, a.Name, a.Password, a.IsActive, a.IsStaff, a.IsSuperuser, nullTime(a.LastLogin)).
		Scan(&a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}

	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, password string) error {
	return r.exec(ctx, `UPDATE accounts SET password = $2 WHERE id = $1`, id, password)
}

func (r *PostgresRepository) UpdateFlags(ctx context.Context, id string, flags models.AccountFlags) error {
	return r.exec(ctx,
		`UPDATE accounts SET is_active = $2, is_staff = $3, is_superuser = $4 WHERE id = $1`,
		id, flags.IsActive, flags.IsStaff, flags.IsSuperuser)
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_login = $2 WHERE id = $1`, id, at)
}

// Delete removes the account; recipes, tags and their links cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}
