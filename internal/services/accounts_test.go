package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recipekeeper/internal/auth"
	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/cryptox"
	"github.com/dmitrijs2005/recipekeeper/internal/dbx"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"test1@EXAMPLE.com", "test1@example.com"},
		{"Test2@Example.com", "Test2@example.com"},
		{"TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"test4@example.COM", "test4@example.com"},
		{"  spaced@Example.Org  ", "spaced@example.org"},
		{`"odd@local"@Example.COM`, `"odd@local"@example.com`},
		{"no-at-sign", "no-at-sign"},
		{"  bob  ", "bob"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in), tt.in)
	}
}

func TestCreateUser_WithEmailSuccessful(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, err := s.accounts.CreateUser(ctx, "test@example.com", "testpass123")
	require.NoError(t, err)

	assert.Equal(t, "test@example.com", a.Email)
	assert.True(t, s.accounts.CheckPassword(a, "testpass123"))
	assert.NotEqual(t, "testpass123", a.Password)
	assert.True(t, a.IsActive)
	assert.False(t, a.IsStaff)
	assert.False(t, a.IsSuperuser)

	stored, err := s.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Password, stored.Password)
	assert.True(t, s.accounts.CheckPassword(stored, "testpass123"))
}

func TestCreateUser_EmailNormalized(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	samples := [][2]string{
		{"test1@EXAMPLE.com", "test1@example.com"},
		{"test2@Example.com", "test2@example.com"},
		{"TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"test4@example.COM", "test4@example.com"},
	}
	for _, sample := range samples {
		a, err := s.accounts.CreateUser(ctx, sample[0], "sample123")
		require.NoError(t, err)
		assert.Equal(t, sample[1], a.Email)

		stored, err := s.accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, sample[1], stored.Email)
	}

	byEmail, err := s.accounts.GetByEmail(ctx, "test2@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "test2@example.com", byEmail.Email)
}

func TestCreateUser_WithoutEmailRaisesError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, pw := range []string{"test123", "", "another-password"} {
		_, err := s.accounts.CreateUser(ctx, "", pw)
		assert.ErrorIs(t, err, common.ErrorValidation)
		assert.ErrorContains(t, err, "users must have an email address")
	}

	_, err := s.accounts.CreateUser(ctx, "   ", "test123")
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Zero(t, s.count(t, "accounts"))
}

func TestCreateUser_Options(t *testing.T) {
	s := newStore(t)

	a, err := s.accounts.CreateUser(context.Background(), "staff@example.com", "pw",
		WithName("Staff Member"), WithStaff(true), WithActive(false))
	require.NoError(t, err)
	assert.Equal(t, "Staff Member", a.Name)
	assert.True(t, a.IsStaff)
	assert.False(t, a.IsActive)
	assert.False(t, a.IsSuperuser)
}

func TestCreateUser_EmptyPasswordIsUnusable(t *testing.T) {
	s := newStore(t)

	a, err := s.accounts.CreateUser(context.Background(), "nopass@example.com", "")
	require.NoError(t, err)
	assert.False(t, cryptox.IsUsable(a.Password))
	assert.False(t, s.accounts.CheckPassword(a, ""))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.accounts.CreateUser(ctx, "dup@Example.com", "pw")
	require.NoError(t, err)

	_, err = s.accounts.CreateUser(ctx, "dup@EXAMPLE.COM", "pw")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Equal(t, 1, s.count(t, "accounts"))
}

func TestCreateSuperuser(t *testing.T) {
	s := newStore(t)

	a, err := s.accounts.CreateSuperuser(context.Background(), "test@example.com", "test123")
	require.NoError(t, err)
	assert.True(t, a.IsSuperuser)
	assert.True(t, a.IsStaff)
	assert.True(t, a.IsActive)
	assert.True(t, s.accounts.CheckPassword(a, "test123"))
}

func TestCreateSuperuser_RejectsRevokedFlags(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.accounts.CreateSuperuser(ctx, "a@example.com", "pw", WithStaff(false))
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.ErrorContains(t, err, "is_staff=true")

	_, err = s.accounts.CreateSuperuser(ctx, "a@example.com", "pw", WithSuperuser(false))
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.ErrorContains(t, err, "is_superuser=true")

	_, err = s.accounts.CreateSuperuser(ctx, "", "pw")
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Zero(t, s.count(t, "accounts"))
}

func TestCheckPassword(t *testing.T) {
	s := newStore(t)

	a, err := s.accounts.CreateUser(context.Background(), "pw@example.com", "right")
	require.NoError(t, err)

	assert.True(t, s.accounts.CheckPassword(a, "right"))
	assert.False(t, s.accounts.CheckPassword(a, "wrong"))
	assert.False(t, s.accounts.CheckPassword(a, ""))
	assert.False(t, s.accounts.CheckPassword(nil, "right"))
	assert.False(t, s.accounts.CheckPassword(&models.Account{Password: "garbage"}, "right"))
}

func TestSetAndChangePassword(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, err := s.accounts.CreateUser(ctx, "chg@example.com", "first")
	require.NoError(t, err)

	require.NoError(t, s.accounts.SetPassword(ctx, a.ID, "second"))
	err = s.accounts.ChangePassword(ctx, a.ID, "first", "third")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	require.NoError(t, s.accounts.ChangePassword(ctx, a.ID, "second", "third"))

	stored, err := s.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, s.accounts.CheckPassword(stored, "third"))
	assert.False(t, s.accounts.CheckPassword(stored, "second"))

	assert.ErrorIs(t, s.accounts.SetPassword(ctx, "missing", "x"), common.ErrorNotFound)
	assert.ErrorIs(t, s.accounts.ChangePassword(ctx, "missing", "x", "y"), common.ErrorNotFound)
}

func TestSetFlags(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, err := s.accounts.CreateUser(ctx, "flags@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, s.accounts.SetFlags(ctx, a.ID, models.AccountFlags{IsActive: true, IsStaff: true}))
	got, err := s.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountFlags{IsActive: true, IsStaff: true}, got.Flags())

	assert.ErrorIs(t, s.accounts.SetFlags(ctx, "missing", models.AccountFlags{}), common.ErrorNotFound)
}

func TestDelete_CascadesToOwnedRecords(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner, err := s.accounts.CreateUser(ctx, "owner@example.com", "pw")
	require.NoError(t, err)
	other, err := s.accounts.CreateUser(ctx, "other@example.com", "pw")
	require.NoError(t, err)

	tag, err := s.tags.Create(ctx, owner.ID, "Tag1")
	require.NoError(t, err)
	_, err = s.recipes.Create(ctx, owner.ID, models.RecipeParams{Title: "Soup", TimeMinutes: 5, Price: decimal.RequireFromString("5.50")}, tag.ID)
	require.NoError(t, err)
	_, err = s.tags.Create(ctx, other.ID, "Kept")
	require.NoError(t, err)

	require.NoError(t, s.accounts.Delete(ctx, owner.ID))

	assert.Equal(t, 1, s.count(t, "accounts"))
	assert.Zero(t, s.count(t, "recipes"))
	assert.Zero(t, s.count(t, "recipe_tags"))
	assert.Equal(t, 1, s.count(t, "tags"))

	assert.ErrorIs(t, s.accounts.Delete(ctx, owner.ID), common.ErrorNotFound)
}

func TestAuthenticateAndIdentify(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, err := s.accounts.CreateUser(ctx, "login@Example.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, a.LastLogin)

	tok, err := s.accounts.Authenticate(ctx, "login@EXAMPLE.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
	assert.True(t, tok.ExpiresAt.After(time.Now()))

	stored, err := s.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)

	who, err := s.accounts.Identify(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, who.ID)
}

func TestAuthenticate_Failures(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.accounts.CreateUser(ctx, "user@example.com", "secret")
	require.NoError(t, err)
	_, err = s.accounts.CreateUser(ctx, "inactive@example.com", "secret", WithActive(false))
	require.NoError(t, err)

	_, err = s.accounts.Authenticate(ctx, "user@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.accounts.Authenticate(ctx, "ghost@example.com", "secret")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.accounts.Authenticate(ctx, "inactive@example.com", "secret")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticate_UpgradesOutdatedHash(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	orig := cryptox.DefaultParams
	cryptox.DefaultParams = cryptox.Params{Memory: 8 * 1024, Time: 1, Threads: 1, KeyLen: 32}
	a, err := s.accounts.CreateUser(ctx, "old@example.com", "secret")
	cryptox.DefaultParams = orig
	require.NoError(t, err)
	require.True(t, cryptox.NeedsRehash(a.Password))

	_, err = s.accounts.Authenticate(ctx, "old@example.com", "secret")
	require.NoError(t, err)

	stored, err := s.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.Password, stored.Password)
	assert.False(t, cryptox.NeedsRehash(stored.Password))
	assert.True(t, s.accounts.CheckPassword(stored, "secret"))
}

func TestIdentify_Failures(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	secret := []byte(s.cfg.SecretKey)

	a, err := s.accounts.CreateUser(ctx, "id@example.com", "secret")
	require.NoError(t, err)

	_, err = s.accounts.Identify(ctx, "not-a-token")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	foreign, err := auth.GenerateToken(a.ID, []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	_, err = s.accounts.Identify(ctx, foreign)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := auth.GenerateToken(a.ID, secret, -time.Minute)
	require.NoError(t, err)
	_, err = s.accounts.Identify(ctx, expired)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	valid, err := auth.GenerateToken(a.ID, secret, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.accounts.SetFlags(ctx, a.ID, models.AccountFlags{IsActive: false}))
	_, err = s.accounts.Identify(ctx, valid)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	require.NoError(t, s.accounts.Delete(ctx, a.ID))
	_, err = s.accounts.Identify(ctx, valid)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

// --- repository failure paths ---

type fakeAccountsRepo struct {
	accounts.Repository
	getErr    error
	createErr error
	updateErr error
	account   *models.Account
}

func (f *fakeAccountsRepo) GetByEmail(context.Context, string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.account, nil
}

func (f *fakeAccountsRepo) GetByID(context.Context, string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.account, nil
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return a, nil
}

func (f *fakeAccountsRepo) UpdateLastLogin(context.Context, string, time.Time) error {
	return f.updateErr
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	accounts *fakeAccountsRepo
}

func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }

func newMockedAccountService(t *testing.T, repo *fakeAccountsRepo) (*AccountService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAccountService(db, &fakeRepoManager{accounts: repo}, testConfig()), mock
}

func TestCreateUser_LookupErrorRollsBack(t *testing.T) {
	s, mock := newMockedAccountService(t, &fakeAccountsRepo{getErr: errors.New("db down")})
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.CreateUser(context.Background(), "x@example.com", "pw")
	assert.ErrorContains(t, err, "error creating account: db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_CreateErrorRollsBack(t *testing.T) {
	s, mock := newMockedAccountService(t, &fakeAccountsRepo{
		getErr:    common.ErrorNotFound,
		createErr: fmtDBError(common.ErrorAlreadyExists),
	})
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.CreateUser(context.Background(), "x@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_CommitsOnSuccess(t *testing.T) {
	s, mock := newMockedAccountService(t, &fakeAccountsRepo{getErr: common.ErrorNotFound})
	mock.ExpectBegin()
	mock.ExpectCommit()

	a, err := s.CreateUser(context.Background(), "x@Example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "x@example.com", a.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticate_RepositoryErrorIsInternal(t *testing.T) {
	s, _ := newMockedAccountService(t, &fakeAccountsRepo{getErr: sql.ErrConnDone})

	_, err := s.Authenticate(context.Background(), "x@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestAuthenticate_LastLoginErrorIsInternal(t *testing.T) {
	encoded, err := cryptox.HashPassword("pw")
	require.NoError(t, err)
	s, mock := newMockedAccountService(t, &fakeAccountsRepo{
		account:   &models.Account{ID: "a1", Password: encoded, IsActive: true},
		updateErr: errors.New("boom"),
	})
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = s.Authenticate(context.Background(), "x@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentify_RepositoryErrorIsInternal(t *testing.T) {
	s, _ := newMockedAccountService(t, &fakeAccountsRepo{getErr: sql.ErrConnDone})
	token, err := auth.GenerateToken("a1", []byte(testConfig().SecretKey), time.Hour)
	require.NoError(t, err)

	_, err = s.Identify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func fmtDBError(err error) error {
	return errors.Join(errors.New("db error"), err)
}
