package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/repomanager"
)

type TagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTagService(db *sql.DB, m repomanager.RepositoryManager) *TagService {
	return &TagService{db: db, repomanager: m}
}

func (s *TagService) Create(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	if err := models.ValidateTagName(name); err != nil {
		return nil, err
	}

	t := &models.Tag{UserID: ownerID, Name: name, CreatedAt: now()}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := ensureOwner(ctx, s.repomanager.Accounts(tx), ownerID); err != nil {
			return err
		}
		_, err := s.repomanager.Tags(tx).Create(ctx, t)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating tag: %w", err)
	}
	return t, nil
}

// List returns the owner's tags ordered by name.
func (s *TagService) List(ctx context.Context, ownerID string) ([]*models.Tag, error) {
	list, err := s.repomanager.Tags(s.db).List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing tags: %w", err)
	}
	return list, nil
}

func (s *TagService) Rename(ctx context.Context, ownerID, id, name string) error {
	if err := models.ValidateTagName(name); err != nil {
		return err
	}
	if err := s.repomanager.Tags(s.db).Rename(ctx, ownerID, id, name); err != nil {
		return fmt.Errorf("error renaming tag: %w", err)
	}
	return nil
}

// Delete removes the tag from the owner and from every recipe carrying it.
func (s *TagService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repomanager.Tags(s.db).Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("error deleting tag: %w", err)
	}
	return nil
}
