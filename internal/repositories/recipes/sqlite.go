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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
// Prices are stored as fixed two-place text.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *models.Recipe) (*models.Recipe, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	stamp(rec)

	query := `INSERT INTO recipes (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Title, rec.Description, rec.Link, rec.TimeMinutes,
		rec.Price.StringFixed(models.PriceDecimalPlaces), rec.ImageKey, rec.ImageStatus, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, userID, id string) (*models.Recipe, error) {
	query := `SELECT ` + columns + ` FROM recipes WHERE id = ? AND user_id = ?`
	return scanRecipe(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *SQLiteRepository) List(ctx context.Context, userID string, tagIDs []string) ([]*models.Recipe, error) {
	query := `SELECT ` + columns + ` FROM recipes r WHERE r.user_id = ?`
	if len(tagIDs) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id IN (` +
			dbx.QuestionPlaceholders(len(tagIDs)) + `))`
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.QueryContext(ctx, query, dbx.Args([]any{userID}, tagIDs)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanRecipes(rows)
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *models.Recipe) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	query := `UPDATE recipes SET title = ?, description = ?, link = ?, time_minutes = ?, price = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	return r.exec(ctx, query,
		rec.Title, rec.Description, rec.Link, rec.TimeMinutes, rec.Price.StringFixed(models.PriceDecimalPlaces),
		rec.UpdatedAt, rec.ID, rec.UserID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	return r.exec(ctx, `DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID)
}

// SetTags replaces the recipe's tag links with tagIDs.
func (r *SQLiteRepository) SetTags(ctx context.Context, recipeID string, tagIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, recipeID, tagID)
		if err != nil {
			return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
		}
	}
	return nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, recipeID string) ([]models.Tag, error) {
	query := `SELECT t.id, t.user_id, t.name, t.created_at FROM tags t
		JOIN recipe_tags rt ON rt.tag_id = t.id
		WHERE rt.recipe_id = ?
		ORDER BY t.name, t.id`
	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanTags(rows)
}

func (r *SQLiteRepository) SetImage(ctx context.Context, userID, id, key, status string, at time.Time) error {
	return r.exec(ctx,
		`UPDATE recipes SET image_key = ?, image_status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		key, status, at, id, userID)
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}
