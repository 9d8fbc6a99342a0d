package tracer

import (
	"context"
	"fmt"
	"math"
	"time"
)

// The HeterogeneousScheduler splits each batch between an asynchronous
// hardware tracer and a software tracer.
//
// The first floor(n * hardwareLoad) rays are dispatched to the hardware
// tracer without waiting; the remaining rays are traced in software on the
// calling goroutine while the hardware works. The scheduler then waits for
// the hardware tracer and returns the hardware results followed by the
// software results so that result i always describes ray i.
type HeterogeneousScheduler struct {
	hardware     Tracer
	software     Tracer
	hardwareLoad float64
	policy       WaitPolicy
	stats        *Stats
}

// Create a new heterogeneous scheduler.
func NewHeterogeneousScheduler(hardware, software Tracer, hardwareLoad float64, policy WaitPolicy) (*HeterogeneousScheduler, error) {
	if math.IsNaN(hardwareLoad) || hardwareLoad < 0 || hardwareLoad > 1 {
		return nil, fmt.Errorf("%w; got %v", ErrInvalidLoad, hardwareLoad)
	}

	return &HeterogeneousScheduler{
		hardware:     hardware,
		software:     software,
		hardwareLoad: hardwareLoad,
		policy:       policy,
		stats:        &Stats{},
	}, nil
}

// Get the number of rays out of numRays that are assigned to the hardware tracer.
func (s *HeterogeneousScheduler) Split(numRays int) int {
	k := int(math.Floor(float64(numRays) * s.hardwareLoad))
	if k > numRays {
		k = numRays
	}
	return k
}

// Trace batch.
func (s *HeterogeneousScheduler) Trace(ctx context.Context, batch *Batch) (*Result, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	numRays := batch.NumRays()
	k := s.Split(numRays)
	start := time.Now()

	hwBatch := batch.Slice(0, k)
	if k > 0 {
		if err := s.hardware.Compute(hwBatch); err != nil {
			return nil, err
		}
	}

	swRes := NewMissResult(0)
	var swTime time.Duration
	if k < numRays {
		var err error
		swRes, err = Run(ctx, s.software, batch.Slice(k, numRays), s.policy)
		if err != nil {
			if k > 0 {
				s.drainHardware(ctx)
			}
			return nil, err
		}
		swTime = time.Since(start)
	}

	hwRes := NewMissResult(0)
	var hwTime time.Duration
	if k > 0 {
		if err := Wait(ctx, s.hardware, s.policy); err != nil {
			return nil, err
		}
		hwTime = time.Since(start)

		var err error
		hwRes, err = s.hardware.Results()
		if err != nil {
			return nil, err
		}
		if hwRes.Len() != k {
			return nil, fmt.Errorf("%w (tracer %s: %d results for %d rays)", ErrResultLength, s.hardware.Id(), hwRes.Len(), k)
		}
	}

	s.stats = &Stats{
		Tracers: []TracerStat{
			newTracerStat(s.hardware.Id(), k, numRays, hwTime),
			newTracerStat(s.software.Id(), numRays-k, numRays, swTime),
		},
		TraceTime: time.Since(start),
	}
	return Concat(hwRes, swRes), nil
}

// Collect and discard in-flight hardware results so the hardware tracer can
// accept new work after a failed software run.
func (s *HeterogeneousScheduler) drainHardware(ctx context.Context) {
	if Wait(ctx, s.hardware, s.policy) == nil {
		s.hardware.Results()
	}
}

// Retrieve statistics for the last traced batch.
func (s *HeterogeneousScheduler) Stats() *Stats {
	return s.stats
}

// Shutdown both tracers.
func (s *HeterogeneousScheduler) Close() {
	s.hardware.Close()
	s.software.Close()
}
