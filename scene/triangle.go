package scene

import "github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"

// A Triangle is an immutable mesh face.
type Triangle struct {
	// Dense, zero-based identifier assigned by the mesh reader.
	Id int

	Vertices [3]types.Vec3

	// Unit normal of the (v1-v0) x (v2-v0) plane.
	Normal types.Vec3
}

// Create a triangle with the given id. Vertices are expected in
// counter-clockwise order.
func NewTriangle(id int, v0, v1, v2 types.Vec3) *Triangle {
	return &Triangle{
		Id:       id,
		Vertices: [3]types.Vec3{v0, v1, v2},
		Normal:   v1.Sub(v0).Cross(v2.Sub(v0)).Normalize(),
	}
}

// Check whether the triangle has zero area.
func (t *Triangle) Degenerate() bool {
	return t.Normal == types.Vec3{}
}
