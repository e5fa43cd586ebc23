package svo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint8(5), cfg.Build.MaxDepth)
	assert.Equal(t, float32(16), cfg.Build.Size)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeFile(t, "svo.toml", `
[build]
max_depth = 7

[log]
debug = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), cfg.Build.MaxDepth)
	assert.Equal(t, float32(16), cfg.Build.Size, "size keeps its default")
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, "svo", cfg.Log.Prefix)
}

func TestLoadConfigRejectsBadDepth(t *testing.T) {
	path := writeFile(t, "svo.toml", "[build]\nmax_depth = 1\n")
	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, octree.ErrInvalidDepth)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := writeFile(t, "bad.toml", "[build\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Build.Size = 0
	assert.Error(t, cfg.Validate())
}
