package scene

import (
	"fmt"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

// Default client camera setup.
var (
	DefaultEye      = types.XYZ(0, 5, 5)
	DefaultLookAt   = types.XYZ(0, 0, 0.3)
	DefaultUp       = types.XYZ(0, 0, 1)
	DefaultDistance = 200.0
)

// Create the default light rig.
func DefaultLights() []PointLight {
	return []PointLight{
		{Position: types.XYZ(50, 50, 50), Color: types.XYZ(1, 1, 1), Intensity: 2},
		{Position: types.XYZ(-50, -50, 50), Color: types.XYZ(1, 1, 1), Intensity: 1},
	}
}

// Create the default material.
func DefaultMaterial() Matte {
	return Matte{Color: types.XYZ(1, 0, 1), Kd: 0.7}
}

// A Scene holds the triangles, camera, lights and material of a client
// rendering request.
type Scene struct {
	Triangles []*Triangle
	Camera    *Camera
	Lights    []PointLight
	Material  Matte
}

// Create a scene for the given triangles using the default lights and
// material. Triangle ids must match their position in the slice.
func NewScene(triangles []*Triangle) (*Scene, error) {
	for index, tri := range triangles {
		if tri.Id != index {
			return nil, fmt.Errorf("%w: triangle at position %d has id %d", ErrInvalidTriangleId, index, tri.Id)
		}
	}

	return &Scene{
		Triangles: triangles,
		Lights:    DefaultLights(),
		Material:  DefaultMaterial(),
	}, nil
}

// Attach a camera to the scene.
func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

// Look up a triangle by id.
func (s *Scene) Triangle(id int32) (*Triangle, error) {
	if id < 0 || int(id) >= len(s.Triangles) {
		return nil, fmt.Errorf("%w: %d (scene has %d triangles)", ErrInvalidTriangleId, id, len(s.Triangles))
	}
	return s.Triangles[id], nil
}

// Build the intersection batch for the scene: every triangle plus one
// camera ray per pixel in row-major order.
func (s *Scene) Batch() (*tracer.Batch, error) {
	if s.Camera == nil {
		return nil, ErrNoCamera
	}

	batch := &tracer.Batch{
		TriangleIds: make([]int32, len(s.Triangles)),
		Triangles:   make([]float64, 0, len(s.Triangles)*tracer.TriangleAttrs),
		Rays:        make([]float64, 0, s.Camera.NumRays()*tracer.RayAttrs),
	}
	for index, tri := range s.Triangles {
		batch.TriangleIds[index] = int32(tri.Id)
		for _, v := range tri.Vertices {
			batch.Triangles = append(batch.Triangles, v[0], v[1], v[2])
		}
	}
	batch.Rays = s.Camera.AppendRays(batch.Rays)

	return batch, nil
}
