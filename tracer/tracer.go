package tracer

import (
	"context"
	"time"
)

// The Tracer interface is implemented by all intersection backends.
//
// Compute may return before the computation completes. Callers must poll
// IsDone (see Wait) before calling Results. Synchronous backends complete
// inside Compute and report IsDone immediately afterwards.
type Tracer interface {
	// Get tracer id.
	Id() string

	// Start intersecting the batch rays against the batch triangles.
	Compute(batch *Batch) error

	// Check whether the last Compute call has completed. This call never blocks.
	IsDone() bool

	// Retrieve the results of the last completed Compute call.
	Results() (*Result, error)

	// Shutdown and cleanup tracer.
	Close()
}

// An Engine runs a full ray batch to completion on one or more tracers.
type Engine interface {
	// Intersect all batch rays and return a result whose i-th entry
	// corresponds to the i-th batch ray.
	Trace(ctx context.Context, batch *Batch) (*Result, error)

	// Retrieve statistics for the last traced batch.
	Stats() *Stats

	// Shutdown the engine and all attached tracers.
	Close()
}

// Per-tracer statistics.
type TracerStat struct {
	// The tracer id.
	Id string

	// The number of rays assigned to the tracer and the percentage of the
	// batch they represent.
	NumRays     int
	RayPercent  float64
	ComputeTime time.Duration
}

// Statistics for a traced batch.
type Stats struct {
	Tracers []TracerStat

	// Total time for the entire batch.
	TraceTime time.Duration
}

func newTracerStat(id string, numRays, total int, elapsed time.Duration) TracerStat {
	var percent float64
	if total > 0 {
		percent = 100.0 * float64(numRays) / float64(total)
	}
	return TracerStat{
		Id:          id,
		NumRays:     numRays,
		RayPercent:  percent,
		ComputeTime: elapsed,
	}
}
