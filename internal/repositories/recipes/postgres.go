package recipes

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

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Recipe) (*models.Recipe, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	stamp(rec)

	query :=
		`INSERT INTO recipes (` + columns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Title, rec.Description, rec.Link, rec.TimeMinutes,
		rec.Price, rec.ImageKey, rec.ImageStatus, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return rec, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Recipe, error) {
	query := `SELECT ` + columns + ` FROM recipes WHERE id = $1 AND user_id = $2`
	return scanRecipe(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) List(ctx context.Context, userID string, tagIDs []string) ([]*models.Recipe, error) {
	query := `SELECT ` + columns + ` FROM recipes r WHERE r.user_id = $1`
	if len(tagIDs) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id IN (` +
			dbx.DollarPlaceholders(2, len(tagIDs)) + `))`
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.QueryContext(ctx, query, dbx.Args([]any{userID}, tagIDs)...)
	if err != nil {
		if dbx.IsMalformedKey(err) {
			return []*models.Recipe{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	list, err := scanRecipes(rows)
	if dbx.IsMalformedKey(err) {
		return []*models.Recipe{}, nil
	}
	return list, err
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.Recipe) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	query :=
		`UPDATE recipes SET title = $3, description = $4, link = $5, time_minutes = $6, price = $7, updated_at = $8
		 WHERE id = $1 AND user_id = $2`
	return r.exec(ctx, query,
		rec.ID, rec.UserID, rec.Title, rec.Description, rec.Link, rec.TimeMinutes, rec.Price, rec.UpdatedAt)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	return r.exec(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, id, userID)
}

// SetTags replaces the recipe's tag links with tagIDs.
func (r *PostgresRepository) SetTags(ctx context.Context, recipeID string, tagIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	for _, tagID := range tagIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, recipeID, tagID)
		if err != nil {
			return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
		}
	}
	return nil
}

func (r *PostgresRepository) ListTags(ctx context.Context, recipeID string) ([]models.Tag, error) {
	query :=
		`SELECT t.id, t.user_id, t.name, t.created_at FROM tags t
		 JOIN recipe_tags rt ON rt.tag_id = t.id
		 WHERE rt.recipe_id = $1
		 ORDER BY t.name, t.id`
	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		if dbx.IsMalformedKey(err) {
			return []models.Tag{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	list, err := scanTags(rows)
	if dbx.IsMalformedKey(err) {
		return []models.Tag{}, nil
	}
	return list, err
}

func (r *PostgresRepository) SetImage(ctx context.Context, userID, id, key, status string, at time.Time) error {
	return r.exec(ctx,
		`UPDATE recipes SET image_key = $3, image_status = $4, updated_at = $5 WHERE id = $1 AND user_id = $2`,
		id, userID, key, status, at)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}
