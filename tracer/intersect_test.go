package tracer

import (
	"math"
	"testing"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

var (
	unitV0 = types.XYZ(0, 0, 0)
	unitV1 = types.XYZ(1, 0, 0)
	unitV2 = types.XYZ(0, 1, 0)
)

func TestIntersect(t *testing.T) {
	type spec struct {
		origin  types.Vec3
		dir     types.Vec3
		expHit  bool
		expDist float64
	}
	specs := []spec{
		// Straight down onto the triangle
		{types.XYZ(0.25, 0.25, 1), types.XYZ(0, 0, -1), true, 1.0},
		// Outside the triangle
		{types.XYZ(5, 5, 1), types.XYZ(0, 0, -1), false, 0},
		// Non-normalized direction scales t
		{types.XYZ(0.25, 0.25, 1), types.XYZ(0, 0, -2), true, 0.5},
		// Triangle behind the ray origin
		{types.XYZ(0.25, 0.25, 1), types.XYZ(0, 0, 1), false, 0},
		// Parallel to the triangle plane
		{types.XYZ(-1, 0.25, 0), types.XYZ(1, 0, 0), false, 0},
		// Origin on the plane (near-plane culling)
		{types.XYZ(0.25, 0.25, 0), types.XYZ(0, 0, -1), false, 0},
		// Beyond the far plane
		{types.XYZ(0.25, 0.25, 2e9), types.XYZ(0, 0, -1), false, 0},
		// Hits from below are still hits
		{types.XYZ(0.1, 0.1, -3), types.XYZ(0, 0, 1), true, 3.0},
		// Past the hypotenuse
		{types.XYZ(0.75, 0.75, 1), types.XYZ(0, 0, -1), false, 0},
	}

	for index, s := range specs {
		dist, hit := Intersect(s.origin, s.dir, unitV0, unitV1, unitV2)
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit)
		}
		if hit && math.Abs(dist-s.expDist) > 1e-9 {
			t.Fatalf("[spec %d] expected distance %f; got %f", index, s.expDist, dist)
		}
	}
}

func TestIntersectDegenerateTriangle(t *testing.T) {
	v := types.XYZ(1, 1, 1)
	if _, hit := Intersect(types.XYZ(1, 1, 2), types.XYZ(0, 0, -1), v, v, v); hit {
		t.Fatal("expected degenerate triangle to be a miss")
	}
}

func TestIntersectNaN(t *testing.T) {
	nan := math.NaN()
	v0, v1, v2 := types.XYZ(-1, -1, 0), types.XYZ(1, -1, 0), types.XYZ(0, 1, 0)

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
	}
	specs := []spec{
		{types.XYZ(nan, 0, 1), types.XYZ(0, 0, -1)},
		{types.XYZ(0, 0, nan), types.XYZ(0, 0, -1)},
		{types.XYZ(0, 0, 1), types.XYZ(0, 0, nan)},
		{types.XYZ(0, 0, 1), types.XYZ(nan, nan, nan)},
	}

	for index, s := range specs {
		if dist, hit := Intersect(s.origin, s.dir, v0, v1, v2); hit {
			t.Fatalf("[spec %d] expected NaN input to be a miss; got hit at %v", index, dist)
		}
	}
}

func TestBatchNearest(t *testing.T) {
	// Two stacked triangles; the upper one (z = 0.5) is listed second.
	batch := &Batch{
		Rays:        []float64{0.2, 0.2, 1, 0, 0, -1, 9, 9, 1, 0, 0, -1},
		TriangleIds: []int32{7, 3},
		Triangles: []float64{
			0, 0, 0, 1, 0, 0, 0, 1, 0,
			0, 0, 0.5, 1, 0, 0.5, 0, 1, 0.5,
		},
	}

	tri, dist := batch.Nearest(0)
	if tri != 1 || math.Abs(dist-0.5) > 1e-9 {
		t.Fatalf("expected ray 0 to hit local triangle 1 at 0.5; got %d at %f", tri, dist)
	}

	tri, dist = batch.Nearest(1)
	if tri != -1 || dist != MaxDistance {
		t.Fatalf("expected ray 1 to miss; got %d at %f", tri, dist)
	}
}
