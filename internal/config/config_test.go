package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
	"github.com/rs/zerolog"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	be.Equal(t, cfg.Limits.MaxCallDepth, DefaultMaxCallDepth)
	be.Equal(t, cfg.Limits.MaxInstructions, int64(0))
	be.Equal(t, cfg.LogLevel(), zerolog.InfoLevel)
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
limits:
  max_call_depth: 64
  max_instructions: 100000
trace:
  instructions: true
log:
  level: debug
cache:
  path: build/cache.db
`)
	cfg, err := ParseConfig(data, "/proj/floyd.yaml")
	be.Err(t, err, nil)
	be.Equal(t, cfg.Limits.MaxCallDepth, 64)
	be.Equal(t, cfg.Limits.MaxInstructions, int64(100000))
	be.True(t, cfg.Trace.Instructions)
	be.Equal(t, cfg.LogLevel(), zerolog.DebugLevel)
	be.Equal(t, cfg.Cache.Path, filepath.Join("/proj", "build/cache.db"))
}

func TestParseConfigRejectsNegativeLimits(t *testing.T) {
	_, err := ParseConfig([]byte("limits:\n  max_call_depth: -1\n"), "floyd.yaml")
	be.True(t, err != nil)
}

func TestParseConfigRejectsBadLevel(t *testing.T) {
	_, err := ParseConfig([]byte("log:\n  level: loud\n"), "floyd.yaml")
	be.True(t, err != nil)
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	be.Err(t, os.MkdirAll(nested, 0o755), nil)

	found, err := FindConfig(nested)
	be.Err(t, err, nil)
	be.Equal(t, found, "")

	cfgPath := filepath.Join(root, ConfigFileName)
	be.Err(t, os.WriteFile(cfgPath, []byte("limits: {}\n"), 0o644), nil)

	found, err = FindConfig(nested)
	be.Err(t, err, nil)
	be.Equal(t, found, cfgPath)
}
