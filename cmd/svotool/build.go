package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gekko3d/svo"
)

var (
	buildOut   string
	buildModel int
	buildScale float32
)

var buildCmd = &cobra.Command{
	Use:   "build <model.vox>",
	Short: "Build a packed octree from a MagicaVoxel model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		vf, err := svo.LoadVoxFile(args[0])
		if err != nil {
			return err
		}
		if buildModel < 0 || buildModel >= len(vf.Models) {
			return errors.Errorf("model %d not in %s (%d models)", buildModel, args[0], len(vf.Models))
		}

		model := vf.Models[buildModel]
		if buildScale != 1 {
			if buildScale <= 0 {
				return errors.Errorf("scale must be positive, got %g", buildScale)
			}
			model = svo.ScaleVoxModel(model, buildScale)
			logger.Debugf("scaled model to %dx%dx%d", model.SizeX, model.SizeY, model.SizeZ)
		}

		server := svo.NewTreeServer(cfg, logger)
		id, err := server.CreateTreeFromVox(model)
		if err != nil {
			return err
		}
		asset, _ := server.Tree(id)

		out := buildOut
		if out == "" {
			out = replaceExt(args[0], ".svo")
		}
		if err := svo.SaveSVOFile(out, asset.Packed); err != nil {
			return err
		}
		st := asset.Tree.Stats()
		logger.Infof("wrote %s: depth %d, %d nodes, %d packed words, %d leaves",
			out, asset.Tree.MaxDepth, st.Nodes, len(asset.Packed.Words), len(asset.Packed.Leaves))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "output .svo path (default: input with .svo extension)")
	buildCmd.Flags().IntVar(&buildModel, "model", 0, "model index inside the .vox file")
	buildCmd.Flags().Float32Var(&buildScale, "scale", 1, "resize the model before building")
	rootCmd.AddCommand(buildCmd)
}
