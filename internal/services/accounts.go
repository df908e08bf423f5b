// Package services contains the business logic of recipekeeper. Every
// operation is one unit of work against an injected *sql.DB, with
// repositories bound per call through a repomanager.RepositoryManager.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipekeeper/internal/auth"
	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/config"
	"github.com/dmitrijs2005/recipekeeper/internal/cryptox"
	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/repomanager"
)

var now = func() time.Time { return time.Now().UTC() }

// Token is an issued access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// AccountOption adjusts the fields of an account before it is created.
type AccountOption func(*models.Account)

func WithName(name string) AccountOption {
	return func(a *models.Account) { a.Name = name }
}

func WithActive(v bool) AccountOption {
	return func(a *models.Account) { a.IsActive = v }
}

func WithStaff(v bool) AccountOption {
	return func(a *models.Account) { a.IsStaff = v }
}

func WithSuperuser(v bool) AccountOption {
	return func(a *models.Account) { a.IsSuperuser = v }
}

// AccountService creates, authenticates and manages accounts.
type AccountService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// NormalizeEmail lowercases the domain part of an address. The local part
// is kept verbatim since mailbox names may be case sensitive. Surrounding
// whitespace is always stripped; addresses without "@" are otherwise unchanged.
func NormalizeEmail(email string) string {
	trimmed := strings.TrimSpace(email)
	i := strings.LastIndex(trimmed, "@")
	if i < 0 {
		return trimmed
	}
	return trimmed[:i] + "@" + strings.ToLower(trimmed[i+1:])
}

// CreateUser creates an active, non-staff account unless opts say otherwise.
func (s *AccountService) CreateUser(ctx context.Context, email, password string, opts ...AccountOption) (*models.Account, error) {
	a := &models.Account{IsActive: true}
	for _, opt := range opts {
		opt(a)
	}
	return s.create(ctx, email, password, a)
}

// CreateSuperuser creates a staff superuser. Options may not revoke either flag.
func (s *AccountService) CreateSuperuser(ctx context.Context, email, password string, opts ...AccountOption) (*models.Account, error) {
	a := &models.Account{IsActive: true, IsStaff: true, IsSuperuser: true}
	for _, opt := range opts {
		opt(a)
	}
	if !a.IsStaff {
		return nil, fmt.Errorf("%w: superuser must have is_staff=true", common.ErrorValidation)
	}
	if !a.IsSuperuser {
		return nil, fmt.Errorf("%w: superuser must have is_superuser=true", common.ErrorValidation)
	}
	return s.create(ctx, email, password, a)
}

func (s *AccountService) create(ctx context.Context, email, password string, a *models.Account) (*models.Account, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: users must have an email address", common.ErrorValidation)
	}
	a.Email = NormalizeEmail(email)
	if strings.TrimSpace(a.Email) == "" {
		return nil, fmt.Errorf("%w: users must have an email address", common.ErrorValidation)
	}

	encoded, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	a.Password = encoded
	a.CreatedAt = now()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)
		_, err := repo.GetByEmail(ctx, a.Email)
		switch {
		case err == nil:
			return fmt.Errorf("%w: account %s", common.ErrorAlreadyExists, a.Email)
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}
		a, err = repo.Create(ctx, a)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return a, nil
}

// CheckPassword reports whether password matches the account's stored hash.
func (s *AccountService) CheckPassword(a *models.Account, password string) bool {
	if a == nil {
		return false
	}
	return cryptox.CheckPassword(a.Password, password)
}

func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, id)
}

// GetByEmail normalizes email before the lookup.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByEmail(ctx, NormalizeEmail(email))
}

func (s *AccountService) SetPassword(ctx context.Context, id, password string) error {
	encoded, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.repomanager.Accounts(s.db).UpdatePassword(ctx, id, encoded); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)
		a, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !cryptox.CheckPassword(a.Password, oldPassword) {
			return common.ErrorUnauthorized
		}
		encoded, err := cryptox.HashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		return repo.UpdatePassword(ctx, id, encoded)
	})
}

func (s *AccountService) SetFlags(ctx context.Context, id string, flags models.AccountFlags) error {
	if err := s.repomanager.Accounts(s.db).UpdateFlags(ctx, id, flags); err != nil {
		return fmt.Errorf("error updating account flags: %w", err)
	}
	return nil
}

// Delete removes the account together with everything it owns.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Accounts(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting account: %w", err)
	}
	return nil
}

// Authenticate verifies the credentials of an active account, records the
// login and issues an access token. Hashes made with outdated parameters
// are upgraded on the way.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*Token, error) {
	repo := s.repomanager.Accounts(s.db)
	a, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !a.IsActive || !cryptox.CheckPassword(a.Password, password) {
		return nil, common.ErrorUnauthorized
	}

	loginAt := now()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Accounts(tx)
		if err := repoTx.UpdateLastLogin(ctx, a.ID, loginAt); err != nil {
			return err
		}
		if !cryptox.NeedsRehash(a.Password) {
			return nil
		}
		encoded, err := cryptox.HashPassword(password)
		if err != nil {
			return err
		}
		return repoTx.UpdatePassword(ctx, a.ID, encoded)
	})
	if err != nil {
		return nil, common.ErrorInternal
	}

	access, err := auth.GenerateToken(a.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Token{AccessToken: access, ExpiresAt: loginAt.Add(s.accessTokenValidityDuration)}, nil
}

// Identify returns the active account an access token was issued to.
func (s *AccountService) Identify(ctx context.Context, token string) (*models.Account, error) {
	id, err := auth.GetAccountIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	a, err := s.repomanager.Accounts(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !a.IsActive {
		return nil, common.ErrorUnauthorized
	}
	return a, nil
}

// ensureOwner maps a missing owner to common.ErrorInvalidReference.
func ensureOwner(ctx context.Context, repo accounts.Repository, ownerID string) error {
	_, err := repo.GetByID(ctx, ownerID)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: account %s does not exist", common.ErrorInvalidReference, ownerID)
	}
	return err
}
