package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gekko3d/svo"
)

var (
	sliceZ     uint32
	sliceScale int
	sliceOut   string
)

var sliceCmd = &cobra.Command{
	Use:   "slice <model.vox>",
	Short: "Render one Z layer of a model's octree to PNG",
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
		if len(vf.Models) == 0 {
			return errors.Errorf("%s has no models", args[0])
		}

		server := svo.NewTreeServer(cfg, logger)
		id, err := server.CreateTreeFromVox(vf.Models[0])
		if err != nil {
			return err
		}
		asset, _ := server.Tree(id)
		img := svo.RenderSlice(asset.Tree, sliceZ, vf.Palette, sliceScale)

		out := sliceOut
		if out == "" {
			out = replaceExt(args[0], ".png")
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := writePNG(f, img); err != nil {
			return errors.Wrap(err, out)
		}
		logger.Infof("wrote layer z=%d to %s", sliceZ, out)
		return nil
	},
}

func init() {
	sliceCmd.Flags().Uint32VarP(&sliceZ, "layer", "z", 0, "z layer to render")
	sliceCmd.Flags().IntVar(&sliceScale, "scale", 8, "pixels per voxel")
	sliceCmd.Flags().StringVarP(&sliceOut, "out", "o", "", "output PNG path")
	rootCmd.AddCommand(sliceCmd)
}
