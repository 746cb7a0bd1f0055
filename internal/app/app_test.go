package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/config"
	"policyguard/internal/domain"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func baseConfig() config.Config {
	return config.Config{
		StoreBackend:    config.StoreMemory,
		LogLevel:        "info",
		MaxTextLength:   8000,
		ShutdownTimeout: time.Second,
	}
}

func TestBuildMemory(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, baseConfig(), quietLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 7, a.Rules.Len())
	require.NoError(t, a.Health.Ping(ctx))

	_, err = a.Compliance.CheckCompliance(ctx, domain.CheckRequest{Text: "password"})
	require.NoError(t, err)
	_, err = a.AuditLog.Get(ctx, 1)
	assert.NoError(t, err)

	_, err = a.Policies.Register(ctx, domain.PolicyRegistration{Title: "t", StorageRef: "r", PolicyType: "hr"})
	assert.NoError(t, err)
}

func TestBuildSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig()
	cfg.StoreBackend = config.StoreSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "audit.db")

	a, err := Build(ctx, cfg, quietLogger())
	require.NoError(t, err)
	_, err = a.Compliance.CheckCompliance(ctx, domain.CheckRequest{Text: "hello"})
	require.NoError(t, err)
	a.Close()

	_, err = os.Stat(cfg.SQLitePath)
	assert.NoError(t, err)
}

func TestBuildRespectsMaxTextLength(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxTextLength = 4
	a, err := Build(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Compliance.CheckCompliance(context.Background(), domain.CheckRequest{Text: "hello"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildFailsOnBadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: []\n"), 0o600))
	cfg := baseConfig()
	cfg.RulesPath = path

	_, err := Build(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "load rules")
}
