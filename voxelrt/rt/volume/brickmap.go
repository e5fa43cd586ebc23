// Package volume is a sparse, editable voxel store that feeds octree builds.
package volume

import (
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

const (
	BrickSize    = 8
	MicroSize    = 2
	SectorBricks = 4
	SectorSize   = SectorBricks * BrickSize // 32
)

// Brick is an 8^3 block of palette indices. Each bit of OccupancyMask64
// covers one 2^3 micro block.
type Brick struct {
	OccupancyMask64 uint64
	Payload         [BrickSize][BrickSize][BrickSize]uint8
}

func (b *Brick) SetVoxel(bx, by, bz int, val uint8) {
	b.Payload[bx][by][bz] = val

	mx, my, mz := bx/MicroSize, by/MicroSize, bz/MicroSize
	bitIdx := mx + my*4 + mz*16

	if val != 0 {
		b.OccupancyMask64 |= 1 << bitIdx
		return
	}
	sx, sy, sz := mx*MicroSize, my*MicroSize, mz*MicroSize
	for x := 0; x < MicroSize; x++ {
		for y := 0; y < MicroSize; y++ {
			for z := 0; z < MicroSize; z++ {
				if b.Payload[sx+x][sy+y][sz+z] != 0 {
					return
				}
			}
		}
	}
	b.OccupancyMask64 &^= 1 << bitIdx
}

func (b *Brick) IsEmpty() bool {
	return b.OccupancyMask64 == 0
}

// Sector holds up to 4^3 bricks; only present bricks are stored, in mask order.
type Sector struct {
	BrickMask64  uint64
	PackedBricks []*Brick
}

func (s *Sector) packedIndex(flatIdx int) int {
	return bits.OnesCount64(s.BrickMask64 & (uint64(1)<<flatIdx - 1))
}

func (s *Sector) Brick(bx, by, bz int) *Brick {
	flatIdx := bx + by*4 + bz*16
	if s.BrickMask64&(1<<flatIdx) == 0 {
		return nil
	}
	return s.PackedBricks[s.packedIndex(flatIdx)]
}

func (s *Sector) brickOrCreate(bx, by, bz int) *Brick {
	flatIdx := bx + by*4 + bz*16
	idx := s.packedIndex(flatIdx)
	if s.BrickMask64&(1<<flatIdx) != 0 {
		return s.PackedBricks[idx]
	}
	b := &Brick{}
	s.PackedBricks = append(s.PackedBricks, nil)
	copy(s.PackedBricks[idx+1:], s.PackedBricks[idx:])
	s.PackedBricks[idx] = b
	s.BrickMask64 |= 1 << flatIdx
	return b
}

func (s *Sector) removeIfEmpty(bx, by, bz int) {
	flatIdx := bx + by*4 + bz*16
	if s.BrickMask64&(1<<flatIdx) == 0 {
		return
	}
	idx := s.packedIndex(flatIdx)
	if !s.PackedBricks[idx].IsEmpty() {
		return
	}
	s.PackedBricks = append(s.PackedBricks[:idx], s.PackedBricks[idx+1:]...)
	s.BrickMask64 &^= 1 << flatIdx
}

// BrickMap stores voxels at arbitrary integer coordinates. Value 0 is empty.
type BrickMap struct {
	Sectors map[[3]int]*Sector
}

func NewBrickMap() *BrickMap {
	return &BrickMap{Sectors: make(map[[3]int]*Sector)}
}

func split(g int) (sector, local int) {
	sector, local = g/SectorSize, g%SectorSize
	if local < 0 {
		local += SectorSize
		sector--
	}
	return sector, local
}

func (m *BrickMap) SetVoxel(gx, gy, gz int, val uint8) {
	sx, lx := split(gx)
	sy, ly := split(gy)
	sz, lz := split(gz)
	bx, by, bz := lx/BrickSize, ly/BrickSize, lz/BrickSize
	key := [3]int{sx, sy, sz}

	sector, ok := m.Sectors[key]
	if val == 0 {
		if !ok {
			return
		}
		brick := sector.Brick(bx, by, bz)
		if brick == nil {
			return
		}
		brick.SetVoxel(lx%BrickSize, ly%BrickSize, lz%BrickSize, 0)
		sector.removeIfEmpty(bx, by, bz)
		if sector.BrickMask64 == 0 {
			delete(m.Sectors, key)
		}
		return
	}

	if !ok {
		sector = &Sector{}
		m.Sectors[key] = sector
	}
	sector.brickOrCreate(bx, by, bz).SetVoxel(lx%BrickSize, ly%BrickSize, lz%BrickSize, val)
}

// GetVoxel returns (found, value) for a voxel at global coordinates.
func (m *BrickMap) GetVoxel(gx, gy, gz int) (bool, uint8) {
	sx, lx := split(gx)
	sy, ly := split(gy)
	sz, lz := split(gz)
	sector, ok := m.Sectors[[3]int{sx, sy, sz}]
	if !ok {
		return false, 0
	}
	brick := sector.Brick(lx/BrickSize, ly/BrickSize, lz/BrickSize)
	if brick == nil {
		return false, 0
	}
	val := brick.Payload[lx%BrickSize][ly%BrickSize][lz%BrickSize]
	return val != 0, val
}

// ForEach calls fn for every non-empty voxel. Iteration order is unspecified.
func (m *BrickMap) ForEach(fn func(x, y, z int, val uint8)) {
	for key, sector := range m.Sectors {
		ox, oy, oz := key[0]*SectorSize, key[1]*SectorSize, key[2]*SectorSize
		for i := 0; i < 64; i++ {
			if sector.BrickMask64&(1<<i) == 0 {
				continue
			}
			bx, by, bz := i%4, (i/4)%4, i/16
			brick := sector.PackedBricks[sector.packedIndex(i)]
			for mi := 0; mi < 64; mi++ {
				if brick.OccupancyMask64&(1<<mi) == 0 {
					continue
				}
				mx, my, mz := (mi%4)*MicroSize, ((mi/4)%4)*MicroSize, (mi/16)*MicroSize
				for x := mx; x < mx+MicroSize; x++ {
					for y := my; y < my+MicroSize; y++ {
						for z := mz; z < mz+MicroSize; z++ {
							if v := brick.Payload[x][y][z]; v != 0 {
								fn(ox+bx*BrickSize+x, oy+by*BrickSize+y, oz+bz*BrickSize+z, v)
							}
						}
					}
				}
			}
		}
	}
}

func (m *BrickMap) Count() int {
	n := 0
	m.ForEach(func(int, int, int, uint8) { n++ })
	return n
}

// Bounds returns the voxel-space AABB of all set voxels. An empty map
// returns two zero vectors.
func (m *BrickMap) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	minB := mgl32.Vec3{1e20, 1e20, 1e20}
	maxB := mgl32.Vec3{-1e20, -1e20, -1e20}
	found := false
	m.ForEach(func(x, y, z int, _ uint8) {
		v := mgl32.Vec3{float32(x), float32(y), float32(z)}
		for i := 0; i < 3; i++ {
			minB[i] = min(minB[i], v[i])
			maxB[i] = max(maxB[i], v[i]+1)
		}
		found = true
	})
	if !found {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	return minB, maxB
}

// Leaves returns the voxels inside the cube [origin, origin+Side(depth)) as
// octree leaves keyed relative to origin.
func (m *BrickMap) Leaves(origin [3]int, depth uint8) ([]octree.Leaf[uint8], error) {
	if depth < octree.MinMaxDepth || depth > octree.MaxMaxDepth {
		return nil, errors.Wrapf(octree.ErrInvalidDepth, "depth %d", depth)
	}
	side := int(morton.Side(depth))
	var leaves []octree.Leaf[uint8]
	m.ForEach(func(x, y, z int, val uint8) {
		lx, ly, lz := x-origin[0], y-origin[1], z-origin[2]
		if lx < 0 || ly < 0 || lz < 0 || lx >= side || ly >= side || lz >= side {
			return
		}
		leaves = append(leaves, octree.Leaf[uint8]{Coord: morton.Encode(uint32(lx), uint32(ly), uint32(lz)), Meta: val})
	})
	return leaves, nil
}

// Build builds an octree over the cube at origin covering Side(depth) voxels.
func (m *BrickMap) Build(origin [3]int, depth uint8, size float32) (*octree.Tree[uint8], error) {
	leaves, err := m.Leaves(origin, depth)
	if err != nil {
		return nil, err
	}
	return octree.Build(leaves, octree.WithMaxDepth(depth), octree.WithSize(size))
}
