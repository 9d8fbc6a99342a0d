package renderer

import "time"

type FrameStats struct {
	// Number of pixels whose ray hit / missed the mesh.
	Hits   int
	Misses int

	// Time spent shading the frame.
	RenderTime time.Duration
}
