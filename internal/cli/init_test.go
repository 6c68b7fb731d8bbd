package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/backend"
	"pennywise/internal/config"
	"pennywise/internal/core"
	"pennywise/internal/log"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Port:             "8081",
		DataBackend:      config.BackendMemory,
		SnapshotPath:     filepath.Join(dir, "snapshots"),
		SnapshotMaxAge:   time.Hour,
		GoalsPath:        filepath.Join(dir, "goals"),
		CacheTTL:         time.Minute,
		SessionTTL:       time.Minute,
		SessionCacheSize: 10,
		JWTSecret:        "0123456789abcdef",
		CurrencySymbol:   "₹",
		MaxSuggestions:   4,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

func TestNewApp_MemoryBackend(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	assert.Equal(t, backend.MemoryBackend, app.Backend.Type)
	assert.NotEmpty(t, app.Catalog.Expense)

	checks := app.Checks()
	require.Contains(t, checks, "backend")
	assert.NotContains(t, checks, "redis")
	assert.NoError(t, checks["backend"](ctx))

	deps := app.ServerDeps()
	assert.Same(t, app.Sessions, deps.Sessions)
	assert.NotNil(t, deps.Verifier)
}

func TestNewApp_MutationInvalidatesViews(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	require.NoError(t, app.Views.Set(ctx, "view:user-1:r1:summary", []byte(`{}`), time.Minute))
	require.NoError(t, app.Views.Set(ctx, "view:user-2:r1:summary", []byte(`{}`), time.Minute))

	sess, err := app.Sessions.Session(ctx, "user-1")
	require.NoError(t, err)
	_, err = sess.AddTransaction(ctx, core.Transaction{
		Amount:   core.Cents(1250),
		Category: "Food",
		Date:     core.NewDate(2024, 5, 2),
		Kind:     core.KindExpense,
		Source:   core.AccountWallet,
	})
	require.NoError(t, err)

	_, hit, err := app.Views.Get(ctx, "view:user-1:r1:summary")
	require.NoError(t, err)
	assert.False(t, hit, "views of the mutating user are dropped")

	_, hit, err = app.Views.Get(ctx, "view:user-2:r1:summary")
	require.NoError(t, err)
	assert.True(t, hit, "other users keep their views")
}

func TestNewApp_GoalsPersistAcrossApps(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := NewApp(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = first.Goals.Create(ctx, "user-1", core.SavingsGoal{Name: "Trip", TargetAmount: core.Cents(50000), Deadline: core.NewDate(2025, 1, 1)})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewApp(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })
	goals, err := second.Goals.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Trip", goals[0].Name)
}

func TestNewApp_BadCatalogFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")

	app, err := NewApp(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestLoadConfig_RunsValidator(t *testing.T) {
	t.Setenv("DATA_BACKEND", config.BackendMemory)
	t.Setenv("JWT_SECRET", "short")
	_, err := LoadConfig((*config.Config).Validate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "short", cfg.JWTSecret)
}
