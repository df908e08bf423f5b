package tags

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

func (r *SQLiteRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO tags (`+columns+`) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.UserID, tag.Name, tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return tag, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, userID, id string) (*models.Tag, error) {
	query := `SELECT ` + columns + ` FROM tags WHERE id = ? AND user_id = ?`
	return scanTag(r.db.QueryRowContext(ctx, query, id, userID))
}

// List returns the user's tags ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]*models.Tag, error) {
	query := `SELECT ` + columns + ` FROM tags WHERE user_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanTags(rows)
}

func (r *SQLiteRepository) CountOwned(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM tags WHERE user_id = ? AND id IN (` + dbx.QuestionPlaceholders(len(ids)) + `)`

	var n int
	if err := r.db.QueryRowContext(ctx, query, dbx.Args([]any{userID}, ids)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Rename(ctx context.Context, userID, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tags SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

// Delete removes the tag and its recipe links.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}
