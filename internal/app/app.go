// Package app wires configuration, logging, the store and the services into
// one value shared by the management commands.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/recipekeeper/internal/config"
	"github.com/dmitrijs2005/recipekeeper/internal/logging"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/recipekeeper/internal/services"
)

type App struct {
	Config *config.Config
	Logger logging.Logger
	DB     *sql.DB
	Repos  repomanager.RepositoryManager

	Accounts *services.AccountService
	Recipes  *services.RecipeService
	Tags     *services.TagService
	Images   *services.ImageService
}

// New opens the database named by cfg.DatabaseDSN and builds the services.
// The schema is not touched; call Migrate for that.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, rm, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Repos:    rm,
		Accounts: services.NewAccountService(db, rm, cfg),
		Recipes:  services.NewRecipeService(db, rm),
		Tags:     services.NewTagService(db, rm),
		Images:   services.NewImageService(db, rm, cfg),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	a.Logger.Info(ctx, "applying migrations")
	if err := a.Repos.RunMigrations(ctx, a.DB); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
