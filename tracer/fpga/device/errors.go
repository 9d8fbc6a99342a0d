package device

import "errors"

var (
	ErrBusy                = errors.New("accelerator: compute issued while unit is not idle")
	ErrNotDone             = errors.New("accelerator: results requested before unit completed")
	ErrNotProvisioned      = errors.New("accelerator: start issued before buffers were provisioned")
	ErrOutOfSharedMemory   = errors.New("accelerator: insufficient shared memory for buffer")
	ErrBufferReleased      = errors.New("accelerator: buffer already released")
	ErrNoSuchUnit          = errors.New("accelerator: no such accelerator unit")
	ErrOverlayLoadFailed   = errors.New("accelerator: could not load overlay")
	ErrUnsupportedPlatform = errors.New("accelerator: hardware overlays are only supported on linux")
)
