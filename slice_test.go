package svo

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

func TestRenderSlice(t *testing.T) {
	var palette VoxPalette
	palette[4] = [4]byte{200, 100, 50, 255}
	tree := octree.MustBuild([]octree.Leaf[uint8]{
		{Coord: morton.Encode(1, 0, 2), Meta: 4},
		{Coord: morton.Encode(3, 3, 1), Meta: 4},
	}, octree.WithMaxDepth(3))

	img := RenderSlice(tree, 2, palette, 1)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{200, 100, 50, 255}, img.RGBAAt(1, 3))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(3, 0), "voxel on another layer")

	big := RenderSlice(tree, 2, palette, 4)
	assert.Equal(t, 16, big.Bounds().Dx())
	assert.Equal(t, color.RGBA{200, 100, 50, 255}, big.RGBAAt(5, 13))
	assert.Equal(t, color.RGBA{}, big.RGBAAt(0, 0))

	empty := RenderSlice(tree, 9, palette, 1)
	assert.Equal(t, color.RGBA{}, empty.RGBAAt(1, 3))
}
