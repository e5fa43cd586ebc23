package svo

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

// RenderSlice draws the z layer of tree as an image, one pixel per voxel
// scaled up by scale. Empty voxels are transparent. Image rows run top down
// so y is flipped to keep +y up.
func RenderSlice(tree *octree.Tree[uint8], z uint32, palette VoxPalette, scale int) *image.RGBA {
	side := int(tree.Side())
	layer := image.NewRGBA(image.Rect(0, 0, side, side))
	if z < uint32(side) {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				n, _ := tree.LookupXYZ(uint32(x), uint32(y), z)
				if !n.IsLeaf() {
					continue
				}
				c := palette[n.Meta]
				layer.SetRGBA(x, side-1-y, color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
			}
		}
	}
	if scale <= 1 {
		return layer
	}
	out := image.NewRGBA(image.Rect(0, 0, side*scale, side*scale))
	draw.NearestNeighbor.Scale(out, out.Bounds(), layer, layer.Bounds(), draw.Src, nil)
	return out
}
