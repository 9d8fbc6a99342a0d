package tracer

import "fmt"

const (
	// Number of floats describing a ray (origin xyz, direction xyz).
	RayAttrs = 6

	// Number of floats describing a triangle (3 vertices x xyz).
	TriangleAttrs = 9
)

// A Batch holds the rays and triangles of a unit of intersection work in the
// flat layout used on the wire and by the accelerator. The i-th ray occupies
// Rays[6i:6i+6] and its index is its identity.
type Batch struct {
	Rays        []float64
	TriangleIds []int32
	Triangles   []float64
}

// Get the number of rays in the batch.
func (b *Batch) NumRays() int {
	return len(b.Rays) / RayAttrs
}

// Get the number of triangles in the batch.
func (b *Batch) NumTriangles() int {
	return len(b.TriangleIds)
}

// Get a batch containing the rays in [from, to). The returned batch shares
// the ray and triangle storage with b.
func (b *Batch) Slice(from, to int) *Batch {
	return &Batch{
		Rays:        b.Rays[from*RayAttrs : to*RayAttrs],
		TriangleIds: b.TriangleIds,
		Triangles:   b.Triangles,
	}
}

// Check that the flat arrays are consistent with each other.
func (b *Batch) Validate() error {
	if len(b.Rays)%RayAttrs != 0 {
		return fmt.Errorf("%w: ray data length %d is not a multiple of %d", ErrMalformedBatch, len(b.Rays), RayAttrs)
	}
	if len(b.Triangles) != len(b.TriangleIds)*TriangleAttrs {
		return fmt.Errorf("%w: %d triangle ids but %d triangle coordinates", ErrMalformedBatch, len(b.TriangleIds), len(b.Triangles))
	}
	return nil
}
