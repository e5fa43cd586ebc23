package svo

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

const (
	VOXMagicNumber = "VOX "
)

var (
	ErrNotVox        = errors.New("not a valid VOX file")
	ErrModelTooLarge = errors.New("model does not fit octree")
)

type Voxel struct {
	X, Y, Z    uint32
	ColorIndex byte
}

type VoxModel struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []Voxel
}

type VoxPalette [256][4]byte // RGBA colors

type VoxFile struct {
	Version int
	Models  []VoxModel
	Palette VoxPalette
}

func LoadVoxFile(filename string) (*VoxFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	vf, err := ReadVox(bufio.NewReader(file))
	return vf, errors.Wrap(err, filename)
}

func ReadVox(r io.Reader) (*VoxFile, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if string(magic[:]) != VOXMagicNumber {
		return nil, ErrNotVox
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "read version")
	}

	voxFile := &VoxFile{
		Version: int(version),
		Palette: defaultPalette(),
	}
	// SIZE/XYZI pairs fill models in order; PACK only preallocates.
	next := 0

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "read chunk id")
		}

		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, errors.Wrapf(err, "chunk %s size", chunkID[:])
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, errors.Wrapf(err, "chunk %s children", chunkID[:])
		}
		if chunkSize < 0 {
			return nil, errors.Errorf("chunk %s has negative size", chunkID[:])
		}

		// Sizes come from the file, so only buffer what is actually there.
		chunkData, err := io.ReadAll(io.LimitReader(r, int64(chunkSize)))
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %s body", chunkID[:])
		}
		if len(chunkData) != int(chunkSize) {
			return nil, errors.Wrapf(io.ErrUnexpectedEOF, "chunk %s body: %d of %d bytes", chunkID[:], len(chunkData), chunkSize)
		}

		switch string(chunkID[:]) {
		case "MAIN":
			// MAIN chunk contains other chunks
			continue
		case "PACK":
			if len(chunkData) < 4 {
				return nil, errors.New("PACK chunk too small")
			}
			if n := binary.LittleEndian.Uint32(chunkData[:4]); n > 0 {
				voxFile.Models = make([]VoxModel, 0, n)
			}
		case "SIZE":
			if len(chunkData) < 12 {
				return nil, errors.New("SIZE chunk too small")
			}
			voxFile.Models = append(voxFile.Models, VoxModel{
				SizeX: binary.LittleEndian.Uint32(chunkData[0:4]),
				SizeY: binary.LittleEndian.Uint32(chunkData[4:8]),
				SizeZ: binary.LittleEndian.Uint32(chunkData[8:12]),
			})
		case "XYZI":
			if next >= len(voxFile.Models) {
				return nil, errors.New("XYZI chunk without SIZE")
			}
			if len(chunkData) < 4 {
				return nil, errors.New("XYZI chunk too small")
			}
			model := &voxFile.Models[next]
			next++
			numVoxels := binary.LittleEndian.Uint32(chunkData[:4])
			if uint64(len(chunkData)) < 4+4*uint64(numVoxels) {
				return nil, errors.New("XYZI chunk data overflow")
			}
			model.Voxels = make([]Voxel, numVoxels)
			for i := range model.Voxels {
				offset := 4 + i*4
				model.Voxels[i] = Voxel{
					X:          uint32(chunkData[offset]),
					Y:          uint32(chunkData[offset+1]),
					Z:          uint32(chunkData[offset+2]),
					ColorIndex: chunkData[offset+3],
				}
			}
		case "RGBA":
			for i := 0; i < 255; i++ {
				offset := i * 4
				if offset+3 >= len(chunkData) {
					break
				}
				copy(voxFile.Palette[i+1][:], chunkData[offset:offset+4])
			}
		}
	}

	return voxFile, nil
}

func defaultPalette() VoxPalette {
	var palette VoxPalette
	for i := range palette {
		palette[i] = [4]uint8{255, 255, 255, 255} // white as fallback
	}
	return palette
}

// Leaves converts the model into octree leaves keyed by Morton code with the
// color index as metadata. Zero color indices are skipped.
func (m VoxModel) Leaves(maxDepth uint8) ([]octree.Leaf[uint8], error) {
	side := morton.Side(maxDepth)
	if m.SizeX > side || m.SizeY > side || m.SizeZ > side {
		return nil, errors.Wrapf(ErrModelTooLarge, "%dx%dx%d into %d^3", m.SizeX, m.SizeY, m.SizeZ, side)
	}
	leaves := make([]octree.Leaf[uint8], 0, len(m.Voxels))
	for _, v := range m.Voxels {
		if v.ColorIndex == 0 {
			continue
		}
		if v.X >= side || v.Y >= side || v.Z >= side {
			return nil, errors.Wrapf(ErrModelTooLarge, "voxel (%d,%d,%d) outside %d^3", v.X, v.Y, v.Z, side)
		}
		leaves = append(leaves, octree.Leaf[uint8]{Coord: morton.Encode(v.X, v.Y, v.Z), Meta: v.ColorIndex})
	}
	return leaves, nil
}

// FitVoxModel downscales model so its largest axis fits a tree of maxDepth.
// Models that already fit are returned unchanged.
func FitVoxModel(model VoxModel, maxDepth uint8) VoxModel {
	side := morton.Side(maxDepth)
	largest := max(model.SizeX, model.SizeY, model.SizeZ)
	if largest <= side {
		return model
	}
	scaled := ScaleVoxModel(model, float32(side)/float32(largest))
	scaled.SizeX, scaled.SizeY, scaled.SizeZ = min(scaled.SizeX, side), min(scaled.SizeY, side), min(scaled.SizeZ, side)
	return scaled
}

// ScaleVoxModel resizes model by scale. Upscaling repeats each voxel over its
// target block; downscaling keeps the most common color per target cell,
// lowest palette index on ties. Voxels come back in Morton order.
func ScaleVoxModel(model VoxModel, scale float32) VoxModel {
	if scale <= 0 || scale == 1.0 {
		return model
	}
	newSizeX := max(uint32(math.Round(float64(float32(model.SizeX)*scale))), 1)
	newSizeY := max(uint32(math.Round(float64(float32(model.SizeY)*scale))), 1)
	newSizeZ := max(uint32(math.Round(float64(float32(model.SizeZ)*scale))), 1)

	newVoxels := make([]Voxel, 0)

	if scale > 1.0 {
		for _, v := range model.Voxels {
			startX, endX := uint32(float32(v.X)*scale), uint32(float32(v.X+1)*scale)
			startY, endY := uint32(float32(v.Y)*scale), uint32(float32(v.Y+1)*scale)
			startZ, endZ := uint32(float32(v.Z)*scale), uint32(float32(v.Z+1)*scale)

			for x := startX; x < endX && x < newSizeX; x++ {
				for y := startY; y < endY && y < newSizeY; y++ {
					for z := startZ; z < endZ && z < newSizeZ; z++ {
						newVoxels = append(newVoxels, Voxel{X: x, Y: y, Z: z, ColorIndex: v.ColorIndex})
					}
				}
			}
		}
	} else {
		// Downscaling by majority vote per target cell.
		type coord struct{ x, y, z uint32 }
		groups := make(map[coord]map[byte]int)
		for _, v := range model.Voxels {
			c := coord{
				min(uint32(float32(v.X)*scale), newSizeX-1),
				min(uint32(float32(v.Y)*scale), newSizeY-1),
				min(uint32(float32(v.Z)*scale), newSizeZ-1),
			}
			if groups[c] == nil {
				groups[c] = make(map[byte]int)
			}
			groups[c][v.ColorIndex]++
		}

		for c, counts := range groups {
			maxCount := 0
			var bestColor byte
			for idx, count := range counts {
				if count > maxCount || (count == maxCount && idx < bestColor) {
					maxCount = count
					bestColor = idx
				}
			}
			newVoxels = append(newVoxels, Voxel{X: c.x, Y: c.y, Z: c.z, ColorIndex: bestColor})
		}
	}
	sort.Slice(newVoxels, func(i, j int) bool {
		a, b := newVoxels[i], newVoxels[j]
		return morton.Encode(a.X, a.Y, a.Z) < morton.Encode(b.X, b.Y, b.Z)
	})

	return VoxModel{
		SizeX: newSizeX, SizeY: newSizeY, SizeZ: newSizeZ,
		Voxels: newVoxels,
	}
}
