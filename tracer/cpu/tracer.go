package cpu

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"golang.org/x/sync/errgroup"
)

type Mode uint8

// Supported execution modes.
const (
	Sequential Mode = iota
	Multicore
	Reference
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Multicore:
		return "multicore"
	case Reference:
		return "reference"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Parse a mode name. "python" is accepted as an alias for the reference mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "sequential", "":
		return Sequential, nil
	case "multicore":
		return Multicore, nil
	case "reference", "python":
		return Reference, nil
	}
	return Sequential, fmt.Errorf("cpu tracer: unknown mode %q", name)
}

// A software tracer that tests every ray against every triangle.
type Tracer struct {
	logger log.Logger

	id      string
	mode    Mode
	workers int

	res *tracer.Result
}

// Create a new software tracer. If workers is <= 0, the multicore mode uses
// one worker per available cpu.
func NewTracer(id string, mode Mode, workers int) *Tracer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Tracer{
		logger:  log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:      id,
		mode:    mode,
		workers: workers,
	}
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get tracer mode.
func (tr *Tracer) Mode() Mode {
	return tr.mode
}

// Intersect all batch rays. Computation completes before Compute returns.
func (tr *Tracer) Compute(batch *tracer.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	tr.res = nil
	start := time.Now()

	var res *tracer.Result
	switch tr.mode {
	case Multicore:
		res = tr.computeParallel(batch)
	case Reference:
		res = tr.computeReference(batch)
	default:
		res = tr.computeRange(batch, tracer.NewMissResult(batch.NumRays()), 0, batch.NumRays())
	}

	tr.logger.Debugf("traced %d rays against %d triangles in %s (%s)", batch.NumRays(), batch.NumTriangles(), time.Since(start), tr.mode)
	tr.res = res
	return nil
}

// Software tracers are always done once Compute returns.
func (tr *Tracer) IsDone() bool {
	return tr.res != nil
}

// Retrieve the results of the last Compute call.
func (tr *Tracer) Results() (*tracer.Result, error) {
	if tr.res == nil {
		return nil, tracer.ErrNotDone
	}
	res := tr.res
	tr.res = nil
	return res, nil
}

// Shutdown and cleanup tracer.
func (tr *Tracer) Close() {
	tr.res = nil
}

// Trace rays in [from, to) writing global triangle ids into res.
func (tr *Tracer) computeRange(batch *tracer.Batch, res *tracer.Result, from, to int) *tracer.Result {
	for ray := from; ray < to; ray++ {
		tri, dist := batch.Nearest(ray)
		if tri == -1 {
			continue
		}
		res.Ids[ray] = batch.TriangleIds[tri]
		res.Distances[ray] = dist
	}
	return res
}

// Split the ray range into contiguous chunks and trace them on a bounded
// pool of goroutines. Each chunk writes a disjoint range of the output slices.
func (tr *Tracer) computeParallel(batch *tracer.Batch) *tracer.Result {
	numRays := batch.NumRays()
	res := tracer.NewMissResult(numRays)
	if numRays == 0 {
		return res
	}

	numChunks := tr.workers * 4
	if numChunks > numRays {
		numChunks = numRays
	}
	chunkSize := (numRays + numChunks - 1) / numChunks

	var g errgroup.Group
	g.SetLimit(tr.workers)
	for from := 0; from < numRays; from += chunkSize {
		from, to := from, from+chunkSize
		if to > numRays {
			to = numRays
		}
		g.Go(func() error {
			tr.computeRange(batch, res, from, to)
			return nil
		})
	}
	g.Wait()

	return res
}

// Record triangle-local indices first and map them to the global triangle
// ids in a second pass.
func (tr *Tracer) computeReference(batch *tracer.Batch) *tracer.Result {
	numRays := batch.NumRays()
	local := make([]int, numRays)
	res := tracer.NewMissResult(numRays)

	for ray := 0; ray < numRays; ray++ {
		local[ray], res.Distances[ray] = batch.Nearest(ray)
	}

	for ray, tri := range local {
		if tri != -1 {
			res.Ids[ray] = batch.TriangleIds[tri]
		}
	}
	return res
}
