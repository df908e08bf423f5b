package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/repomanager"
)

// RecipeService manages recipes on behalf of their owner. Recipes of other
// accounts are reported as common.ErrorNotFound.
type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager) *RecipeService {
	return &RecipeService{db: db, repomanager: m}
}

// Create stores a recipe for ownerID, optionally tagged with tagIDs.
func (s *RecipeService) Create(ctx context.Context, ownerID string, p models.RecipeParams, tagIDs ...string) (*models.Recipe, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := &models.Recipe{UserID: ownerID}
	p.Apply(r)
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := ensureOwner(ctx, s.repomanager.Accounts(tx), ownerID); err != nil {
			return err
		}
		if _, err := s.repomanager.Recipes(tx).Create(ctx, r); err != nil {
			return err
		}
		tags, err := s.setTags(ctx, tx, ownerID, r.ID, tagIDs)
		r.Tags = tags
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating recipe: %w", err)
	}
	return r, nil
}

// Get returns the recipe with its tags.
func (s *RecipeService) Get(ctx context.Context, ownerID, id string) (*models.Recipe, error) {
	repo := s.repomanager.Recipes(s.db)
	r, err := repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if r.Tags, err = repo.ListTags(ctx, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns the owner's recipes, newest first. With tagIDs only recipes
// carrying at least one of those tags are returned.
func (s *RecipeService) List(ctx context.Context, ownerID string, tagIDs ...string) ([]*models.Recipe, error) {
	repo := s.repomanager.Recipes(s.db)
	list, err := repo.List(ctx, ownerID, unique(tagIDs))
	if err != nil {
		return nil, fmt.Errorf("error listing recipes: %w", err)
	}
	for _, r := range list {
		if r.Tags, err = repo.ListTags(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("error listing recipe tags: %w", err)
		}
	}
	return list, nil
}

// Update replaces the editable fields of a recipe.
func (s *RecipeService) Update(ctx context.Context, ownerID, id string, p models.RecipeParams) (*models.Recipe, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var r *models.Recipe
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)
		var err error
		if r, err = repo.GetByID(ctx, ownerID, id); err != nil {
			return err
		}
		p.Apply(r)
		r.UpdatedAt = now()
		if err := repo.Update(ctx, r); err != nil {
			return err
		}
		r.Tags, err = repo.ListTags(ctx, r.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating recipe: %w", err)
	}
	return r, nil
}

func (s *RecipeService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repomanager.Recipes(s.db).Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("error deleting recipe: %w", err)
	}
	return nil
}

// SetTags replaces the recipe's tags. Every tag must belong to the owner.
func (s *RecipeService) SetTags(ctx context.Context, ownerID, id string, tagIDs []string) ([]models.Tag, error) {
	var tags []models.Tag
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Recipes(tx).GetByID(ctx, ownerID, id); err != nil {
			return err
		}
		var err error
		tags, err = s.setTags(ctx, tx, ownerID, id, tagIDs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error setting recipe tags: %w", err)
	}
	return tags, nil
}

func (s *RecipeService) setTags(ctx context.Context, tx dbx.DBTX, ownerID, recipeID string, tagIDs []string) ([]models.Tag, error) {
	ids := unique(tagIDs)
	n, err := s.repomanager.Tags(tx).CountOwned(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if n != len(ids) {
		return nil, fmt.Errorf("%w: unknown tag", common.ErrorInvalidReference)
	}

	repo := s.repomanager.Recipes(tx)
	if err := repo.SetTags(ctx, recipeID, ids); err != nil {
		return nil, err
	}
	return repo.ListTags(ctx, recipeID)
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
