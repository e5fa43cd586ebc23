package main

import (
	"github.com/spf13/cobra"

	"github.com/gekko3d/svo"
)

var (
	configPath string
	depthFlag  uint8
	sizeFlag   float32
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:           "svotool",
	Short:         "Build and inspect sparse voxel octrees",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "TOML config file")
	f.Uint8Var(&depthFlag, "depth", 0, "octree max depth (overrides config)")
	f.Float32Var(&sizeFlag, "size", 0, "world-space tree size (overrides config)")
	f.BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (svo.Config, svo.Logger, error) {
	cfg := svo.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = svo.LoadConfig(configPath); err != nil {
			return cfg, nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("depth") {
		cfg.Build.MaxDepth = depthFlag
	}
	if flags.Changed("size") {
		cfg.Build.Size = sizeFlag
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = debugFlag
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, cfg.NewLogger(), nil
}
