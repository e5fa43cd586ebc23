// Package svo builds, stores and serializes sparse voxel octrees for the gekko
// voxel engine.
package svo

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

type BuildConfig struct {
	MaxDepth uint8   `toml:"max_depth"`
	Size     float32 `toml:"size"`
}

type LogConfig struct {
	Prefix string `toml:"prefix"`
	Debug  bool   `toml:"debug"`
}

type Config struct {
	Build BuildConfig `toml:"build"`
	Log   LogConfig   `toml:"log"`
}

func DefaultConfig() Config {
	return Config{
		Build: BuildConfig{MaxDepth: octree.DefaultMaxDepth, Size: octree.DefaultSize},
		Log:   LogConfig{Prefix: "svo"},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys missing from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Build.MaxDepth < octree.MinMaxDepth || c.Build.MaxDepth > octree.MaxMaxDepth {
		return errors.Wrapf(octree.ErrInvalidDepth, "build.max_depth = %d", c.Build.MaxDepth)
	}
	if c.Build.Size <= 0 {
		return errors.Errorf("build.size must be positive, got %v", c.Build.Size)
	}
	return nil
}

func (c Config) BuildOptions() []octree.Option {
	return []octree.Option{octree.WithMaxDepth(c.Build.MaxDepth), octree.WithSize(c.Build.Size)}
}

func (c Config) NewLogger() Logger {
	return NewDefaultLogger(c.Log.Prefix, c.Log.Debug)
}
