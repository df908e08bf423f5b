package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/recipekeeper/internal/config"
	"github.com/dmitrijs2005/recipekeeper/internal/repositories/repomanager"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

type testStore struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	cfg      *config.Config
	accounts *AccountService
	recipes  *RecipeService
	tags     *TagService
	images   *ImageService
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = ":memory:"
	cfg.SecretKey = "test-secret"
	cfg.AccessTokenValidityDuration = time.Hour
	return cfg
}

func newStore(t *testing.T) *testStore {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()

	db, rm, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetLogger(goose.NopLogger())
	require.NoError(t, rm.RunMigrations(ctx, db))

	return &testStore{
		db:       db,
		rm:       rm,
		cfg:      cfg,
		accounts: NewAccountService(db, rm, cfg),
		recipes:  NewRecipeService(db, rm),
		tags:     NewTagService(db, rm),
		images:   NewImageService(db, rm, cfg),
	}
}

// tickingClock makes now return start, start+step, ... for the test.
func tickingClock(t *testing.T, start time.Time, step time.Duration) {
	t.Helper()
	var mu sync.Mutex
	next := start
	orig := now
	now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		v := next
		next = next.Add(step)
		return v
	}
	t.Cleanup(func() { now = orig })
}

func (s *testStore) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
