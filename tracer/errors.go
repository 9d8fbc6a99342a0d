package tracer

import "errors"

var (
	ErrNotDone        = errors.New("tracer: results requested before computation completed")
	ErrTimeout        = errors.New("tracer: timed out waiting for computation to complete")
	ErrMalformedBatch = errors.New("tracer: malformed batch")
	ErrResultLength   = errors.New("tracer: result length does not match ray count")
	ErrInvalidLoad    = errors.New("tracer: load fraction must be in [0, 1]")
)
