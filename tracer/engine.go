package tracer

import (
	"context"
	"time"
)

// An engine that sends every batch to a single tracer. It implements the
// cpu-only and hardware-only execution modes.
type singleEngine struct {
	tracer Tracer
	policy WaitPolicy
	stats  *Stats
}

// Create an engine that runs whole batches on tr.
func NewSingleEngine(tr Tracer, policy WaitPolicy) Engine {
	return &singleEngine{
		tracer: tr,
		policy: policy,
		stats:  &Stats{},
	}
}

func (e *singleEngine) Trace(ctx context.Context, batch *Batch) (*Result, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := Run(ctx, e.tracer, batch, e.policy)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	e.stats = &Stats{
		Tracers:   []TracerStat{newTracerStat(e.tracer.Id(), batch.NumRays(), batch.NumRays(), elapsed)},
		TraceTime: elapsed,
	}
	return res, nil
}

func (e *singleEngine) Stats() *Stats {
	return e.stats
}

func (e *singleEngine) Close() {
	e.tracer.Close()
}
