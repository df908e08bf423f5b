// Package recipes persists models.Recipe rows and their tag links.
package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
)

// Repository methods taking a userID only see recipes owned by that user.
type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	GetByID(ctx context.Context, userID, id string) (*models.Recipe, error)
	// List returns the user's recipes, newest first. A non-empty tagIDs keeps
	// recipes carrying at least one of them.
	List(ctx context.Context, userID string, tagIDs []string) ([]*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, userID, id string) error
	SetTags(ctx context.Context, recipeID string, tagIDs []string) error
	ListTags(ctx context.Context, recipeID string) ([]models.Tag, error)
	SetImage(ctx context.Context, userID, id, key, status string, at time.Time) error
}

const columns = `id, user_id, title, description, link, time_minutes, price, image_key, image_status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	r := &models.Recipe{}
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Link, &r.TimeMinutes,
		&r.Price, &r.ImageKey, &r.ImageStatus, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return r, nil
}

func scanRecipes(rows *sql.Rows) ([]*models.Recipe, error) {
	defer rows.Close()

	result := []*models.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return result, nil
}

func scanTags(rows *sql.Rows) ([]models.Tag, error) {
	defer rows.Close()

	result := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.ClassifyError(err))
	}
	return result, nil
}

func stamp(r *models.Recipe) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
}
