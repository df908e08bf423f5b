// Package tags persists models.Tag rows.
package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
)

type Repository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	GetByID(ctx context.Context, userID, id string) (*models.Tag, error)
	List(ctx context.Context, userID string) ([]*models.Tag, error)
	// CountOwned returns how many of ids name tags owned by userID.
	CountOwned(ctx context.Context, userID string, ids []string) (int, error)
	Rename(ctx context.Context, userID, id, name string) error
	Delete(ctx context.Context, userID, id string) error
}

const columns = `id, user_id, name, created_at`

func scanTag(row interface{ Scan(dest ...any) error }) (*models.Tag, error) {
	t := &models.Tag{}
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return t, nil
}

func scanTags(rows *sql.Rows) ([]*models.Tag, error) {
	defer rows.Close()

	result := []*models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return result, nil
}
