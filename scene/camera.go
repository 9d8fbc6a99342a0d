package scene

import (
	"fmt"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

// A Ray with an origin and a unit direction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// Get the point at distance t along the ray.
func (r Ray) At(t float64) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// The Camera is a pinhole camera that emits one ray per pixel through a view
// plane placed Distance units in front of the eye.
type Camera struct {
	// Image resolution.
	HRes, VRes int

	Eye    types.Vec3
	LookAt types.Vec3
	Up     types.Vec3

	// View plane distance and pixel size.
	Distance  float64
	PixelSize float64

	// Orthonormal camera basis.
	u, v, w types.Vec3
}

// Create a camera and set up its basis vectors.
func NewCamera(hres, vres int, eye, lookAt, up types.Vec3, distance, pixelSize float64) (*Camera, error) {
	if hres <= 0 || vres <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidResolution, hres, vres)
	}

	c := &Camera{
		HRes:      hres,
		VRes:      vres,
		Eye:       eye,
		LookAt:    lookAt,
		Up:        up,
		Distance:  distance,
		PixelSize: pixelSize,
	}

	c.w = eye.Sub(lookAt).Normalize()
	c.u = up.Cross(c.w).Neg().Normalize()
	c.v = c.w.Cross(c.u)
	if c.w == (types.Vec3{}) || c.u == (types.Vec3{}) {
		return nil, fmt.Errorf("%w: eye %v, look at %v, up %v", ErrDegenerateCamera, eye, lookAt, up)
	}
	return c, nil
}

// Get the number of rays generated by the camera.
func (c *Camera) NumRays() int {
	return c.HRes * c.VRes
}

// Get the primary ray through pixel (col, row).
func (c *Camera) Ray(col, row int) Ray {
	xv := c.PixelSize * (float64(col) - float64(c.HRes)/2)
	yv := c.PixelSize * (float64(row) - float64(c.VRes)/2)
	dir := c.u.Mul(xv).Add(c.v.Mul(yv)).Sub(c.w.Mul(c.Distance))
	return Ray{Origin: c.Eye, Dir: dir.Normalize()}
}

// Get the ray for the index-th pixel in row-major order.
func (c *Camera) RayAt(index int) Ray {
	return c.Ray(index%c.HRes, index/c.HRes)
}

// Append one ray per pixel in row-major order to out using the flat
// origin/direction layout.
func (c *Camera) AppendRays(out []float64) []float64 {
	for row := 0; row < c.VRes; row++ {
		for col := 0; col < c.HRes; col++ {
			ray := c.Ray(col, row)
			out = append(out,
				ray.Origin[0], ray.Origin[1], ray.Origin[2],
				ray.Dir[0], ray.Dir[1], ray.Dir[2],
			)
		}
	}
	return out
}
