package volume

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sphere fills a sphere in the BrickMap
func Sphere(m *BrickMap, center mgl32.Vec3, radius float32, paletteIdx uint8) {
	r2 := radius * radius
	minB, maxB := floorVec(center.Sub(mgl32.Vec3{radius, radius, radius})), ceilVec(center.Add(mgl32.Vec3{radius, radius, radius}))

	for x := minB[0]; x <= maxB[0]; x++ {
		for y := minB[1]; y <= maxB[1]; y++ {
			for z := minB[2]; z <= maxB[2]; z++ {
				dx := float32(x) - center.X() + 0.5
				dy := float32(y) - center.Y() + 0.5
				dz := float32(z) - center.Z() + 0.5
				if dx*dx+dy*dy+dz*dz <= r2 {
					m.SetVoxel(x, y, z, paletteIdx)
				}
			}
		}
	}
}

// Cube fills every voxel whose corner lies in [minB, maxB).
func Cube(m *BrickMap, minB, maxB mgl32.Vec3, paletteIdx uint8) {
	lo, hi := floorVec(minB), ceilVec(maxB)
	for x := lo[0]; x < hi[0]; x++ {
		for y := lo[1]; y < hi[1]; y++ {
			for z := lo[2]; z < hi[2]; z++ {
				m.SetVoxel(x, y, z, paletteIdx)
			}
		}
	}
}

// Cone fills a cone whose base circle is centered on base and whose apex
// is tip.
func Cone(m *BrickMap, base, tip mgl32.Vec3, radius float32, paletteIdx uint8) {
	fillAlongAxis(m, base, tip, radius, func(v mgl32.Vec3, along, taper float32) bool {
		r := radius * taper
		return v.LenSqr()-along*along <= r*r
	}, paletteIdx)
}

// Pyramid fills a square pyramid with base side size.
func Pyramid(m *BrickMap, base, tip mgl32.Vec3, size float32, paletteIdx uint8) {
	axis := tip.Sub(base).Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if abs32(axis.Dot(up)) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	right := axis.Cross(up).Normalize()
	forward := right.Cross(axis).Normalize()
	fillAlongAxis(m, base, tip, size, func(v mgl32.Vec3, _, taper float32) bool {
		half := size * 0.5 * taper
		return abs32(v.Dot(right)) <= half && abs32(v.Dot(forward)) <= half
	}, paletteIdx)
}

// Point fills a single voxel.
func Point(m *BrickMap, x, y, z int, paletteIdx uint8) {
	m.SetVoxel(x, y, z, paletteIdx)
}

// fillAlongAxis visits voxel centers between base and tip and sets the ones
// inside accepts. v is the center relative to base, along its projection on
// the axis and taper the remaining fraction of the height (1 at base, 0 at
// tip).
func fillAlongAxis(m *BrickMap, base, tip mgl32.Vec3, width float32, inside func(v mgl32.Vec3, along, taper float32) bool, paletteIdx uint8) {
	heightVec := tip.Sub(base)
	height := heightVec.Len()
	if height < 1e-5 {
		return
	}
	axis := heightVec.Normalize()

	reach := max(width, height)
	center := base.Add(tip).Mul(0.5)
	ext := mgl32.Vec3{reach, reach, reach}
	lo, hi := floorVec(center.Sub(ext)), ceilVec(center.Add(ext))

	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				v := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}.Sub(base)
				along := v.Dot(axis)
				if along < 0 || along > height {
					continue
				}
				if inside(v, along, 1-along/height) {
					m.SetVoxel(x, y, z, paletteIdx)
				}
			}
		}
	}
}

func abs32(f float32) float32 {
	return float32(math.Abs(float64(f)))
}

func floorVec(v mgl32.Vec3) [3]int {
	return [3]int{int(math.Floor(float64(v.X()))), int(math.Floor(float64(v.Y()))), int(math.Floor(float64(v.Z())))}
}

func ceilVec(v mgl32.Vec3) [3]int {
	return [3]int{int(math.Ceil(float64(v.X()))), int(math.Ceil(float64(v.Y()))), int(math.Ceil(float64(v.Z())))}
}
