package tags

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO tags (id, user_id, name)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `
	err := r.db.QueryRowContext(ctx, query, tag.ID, tag.UserID, tag.Name).Scan(&tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return tag, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Tag, error) {
	query := `SELECT ` + columns + ` FROM tags WHERE id = $1 AND user_id = $2`
	return scanTag(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Tag, error) {
	query := `SELECT ` + columns + ` FROM tags WHERE user_id = $1 ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		if dbx.IsMalformedKey(err) {
			return []*models.Tag{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	list, err := scanTags(rows)
	if dbx.IsMalformedKey(err) {
		return []*models.Tag{}, nil
	}
	return list, err
}

// CountOwned counts malformed ids as not owned.
func (r *PostgresRepository) CountOwned(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM tags WHERE user_id = $1 AND id IN (` + dbx.DollarPlaceholders(2, len(ids)) + `)`

	var n int
	if err := r.db.QueryRowContext(ctx, query, dbx.Args([]any{userID}, ids)...).Scan(&n); err != nil {
		if dbx.IsMalformedKey(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tags SET name = $3 WHERE id = $1 AND user_id = $2`, id, userID, name)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}
