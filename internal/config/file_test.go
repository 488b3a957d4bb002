package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/config"
)

func TestLoadProjectFileMissingIsNotAnError(t *testing.T) {
	cfg := config.DefaultConfig()
	err := config.LoadProjectFile(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadProjectFileOverridesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".arborist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache_dir: /tmp/cache\ndialect: rb\n"), 0o644))

	cfg := config.DefaultConfig()
	require.NoError(t, config.LoadProjectFile(path, &cfg))
	require.Equal(t, "/tmp/cache", cfg.CacheDir)
	require.Equal(t, config.DialectRuby, cfg.Dialect)
}

func TestLoadProjectFileMalformedIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".arborist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache_dir: [this is not a string\n"), 0o644))

	cfg := config.DefaultConfig()
	require.Error(t, config.LoadProjectFile(path, &cfg))
}
