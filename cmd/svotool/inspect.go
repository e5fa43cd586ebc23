package main

import (
	"fmt"
	"math/bits"

	"github.com/spf13/cobra"

	"github.com/gekko3d/svo"
	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <tree.svo>",
	Short: "Print statistics of a packed octree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := svo.LoadSVOFile(args[0])
		if err != nil {
			return err
		}
		var subdivided, leafBits int
		for _, w := range p.Words {
			_, valid, leaf := octree.UnpackWord(w)
			subdivided += bits.OnesCount8(valid &^ leaf)
			leafBits += bits.OnesCount8(leaf)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "depth:       %d (%d^3 voxels)\n", p.MaxDepth, 1<<(p.MaxDepth-1))
		fmt.Fprintf(w, "size:        %g\n", p.Size)
		fmt.Fprintf(w, "words:       %d (%d bytes)\n", len(p.Words), len(p.Words)*octree.PackedWordSize)
		fmt.Fprintf(w, "subdivided:  %d\n", subdivided)
		fmt.Fprintf(w, "leaves:      %d\n", leafBits)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
