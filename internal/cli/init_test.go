package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, err := SetupLogger("debug")
	require.NoError(t, err)
	assert.Same(t, logger.Logger, slog.Default())

	_, err = SetupLogger("chatty")
	assert.Error(t, err)
}

func TestBootstrapReportsInvalidConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	chdir(t, t.TempDir())

	t.Setenv("DATA_BACKEND", "postgres")
	_, _, err := Bootstrap()
	assert.Error(t, err)

	t.Setenv("DATA_BACKEND", "memory")
	cfg, logger, err := Bootstrap()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)
	assert.NotNil(t, logger)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ACCOUNTBOOK_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("ACCOUNTBOOK_TEST_VAR", "")
	os.Unsetenv("ACCOUNTBOOK_TEST_VAR")

	LoadEnvFile()
	assert.Equal(t, "from-file", os.Getenv("ACCOUNTBOOK_TEST_VAR"))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
