package renderer

import "github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"

type Options struct {
	// Color for pixels whose ray missed every triangle.
	Background types.Vec3

	// Linear scale applied to shaded colors before clamping.
	Exposure float64
}

// Get the default options: black background and unit exposure.
func DefaultOptions() Options {
	return Options{Exposure: 1}
}
