package scene

import (
	"math"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

// A PointLight emits Color * Intensity radiance from a single position.
type PointLight struct {
	Position  types.Vec3
	Color     types.Vec3
	Intensity float64
}

// Get the (unnormalized) direction from point towards the light.
func (l PointLight) Direction(point types.Vec3) types.Vec3 {
	return l.Position.Sub(point)
}

// Get the emitted radiance.
func (l PointLight) Radiance() types.Vec3 {
	return l.Color.Mul(l.Intensity)
}

// A Matte material reflects incoming light equally in all directions.
type Matte struct {
	Color types.Vec3

	// Diffuse reflection coefficient.
	Kd float64
}

// Shade the hit point of ray with surface normal n under lights. The
// returned color is not clamped.
func (m Matte) Shade(ray Ray, dist float64, normal types.Vec3, lights []PointLight) types.Vec3 {
	hit := ray.At(dist)
	albedo := m.Color.Mul(m.Kd / math.Pi)

	var out types.Vec3
	for _, light := range lights {
		wi := light.Direction(hit).Normalize()
		cos := math.Abs(wi.Dot(normal))
		out = out.Add(albedo.MulVec(light.Radiance()).Mul(cos))
	}
	return out
}
