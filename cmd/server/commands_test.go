package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegeportal/internal/platform/config"
)

var catalogFixture = filepath.Join("..", "..", "internal", "catalog", "store", "testdata", "catalog.yaml")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "portal version dev")
}

func TestCheckCatalogCommand(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		out, err := execute(t, "check-catalog", catalogFixture)
		require.NoError(t, err)
		assert.Contains(t, out, "3 projects, 2 institutions")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "check-catalog", filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("requires an argument", func(t *testing.T) {
		_, err := execute(t, "check-catalog")
		assert.Error(t, err)
	})
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestLoadCatalogSources(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("fixture by default", func(t *testing.T) {
		cat, err := loadCatalog(context.Background(), config.Database{}, log)
		require.NoError(t, err)
		assert.Len(t, cat.ListProjects(), 6)
	})

	t.Run("yaml file", func(t *testing.T) {
		cat, err := loadCatalog(context.Background(), config.Database{CatalogFile: catalogFixture}, log)
		require.NoError(t, err)
		assert.Len(t, cat.ListProjects(), 3)
	})

	t.Run("cancelled context aborts postgres load", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := loadCatalog(ctx, config.Database{URL: "postgres://localhost/portal"}, log)
		assert.Error(t, err)
	})
}

func TestOpenSlotStore(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Config{Session: config.Session{
			SlotBackend: config.SlotBackendSQLite,
			SlotDB:      filepath.Join(t.TempDir(), "slots.db"),
		}}
		slots, closeFn, err := openSlotStore(ctx, cfg, nil)
		require.NoError(t, err)
		defer closeFn()
		require.NoError(t, slots.Put(ctx, "collegeUser:a", []byte("{}")))
	})

	t.Run("redis without client", func(t *testing.T) {
		cfg := config.Config{Session: config.Session{SlotBackend: config.SlotBackendRedis}}
		_, _, err := openSlotStore(ctx, cfg, nil)
		assert.Error(t, err)
	})
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Minute, sweepInterval(30*time.Minute))
	assert.Equal(t, 5*time.Second, sweepInterval(10*time.Second))
	assert.Equal(t, time.Second, sweepInterval(time.Millisecond))
}
