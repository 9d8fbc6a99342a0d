package tracer

import (
	"math"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

const (
	// Tolerance for parallel rays and near-plane culling.
	Epsilon = 1e-5

	// Far plane; also the distance reported for rays that miss.
	MaxDistance = 1e9
)

// Intersect a ray with a triangle using the Möller-Trumbore algorithm.
// Returns the ray parameter t of the hit point and true on a hit. Rays
// parallel to the triangle plane, hits outside the triangle and hits outside
// the (Epsilon, MaxDistance) range are reported as misses. Comparisons are
// written so that NaN operands fail them.
func Intersect(origin, dir, v0, v1, v2 types.Vec3) (float64, bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := dir.Cross(edge2)
	a := edge1.Dot(h)
	if !(math.Abs(a) >= Epsilon) {
		return 0, false
	}

	f := 1.0 / a
	s := origin.Sub(v0)
	u := f * s.Dot(h)
	if !(u >= 0.0 && u <= 1.0) {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * dir.Dot(q)
	if !(v >= 0.0 && u+v <= 1.0) {
		return 0, false
	}

	t := f * edge2.Dot(q)
	if !(t > Epsilon && t < MaxDistance) {
		return 0, false
	}
	return t, true
}

// Find the nearest triangle hit by the rayIndex-th batch ray. Returns the
// triangle-local index (or -1) and the hit distance (or MaxDistance).
func (b *Batch) Nearest(rayIndex int) (int, float64) {
	base := rayIndex * RayAttrs
	origin := types.Vec3From(b.Rays[base:])
	dir := types.Vec3From(b.Rays[base+3:])

	nearest, nearestDist := -1, MaxDistance
	for tri := 0; tri < len(b.TriangleIds); tri++ {
		triBase := tri * TriangleAttrs
		t, hit := Intersect(
			origin,
			dir,
			types.Vec3From(b.Triangles[triBase:]),
			types.Vec3From(b.Triangles[triBase+3:]),
			types.Vec3From(b.Triangles[triBase+6:]),
		)
		if hit && t < nearestDist {
			nearest, nearestDist = tri, t
		}
	}
	return nearest, nearestDist
}
