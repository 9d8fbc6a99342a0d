package device

import (
	"fmt"
	"strings"
	"time"
)

// Name of the bitstream that selects the built-in simulator.
const SimulatorBitstream = "sim"

// An Overlay is a loaded accelerator image exposing one or more
// intersection units and the shared memory they operate on.
type Overlay interface {
	// Get the number of intersection units in the overlay.
	NumUnits() int

	// Get the register window of the idx-th unit.
	Unit(idx int) (Registers, error)

	// Get the shared buffer allocator.
	Allocator() Allocator

	// Release the overlay.
	Close() error
}

// Load the accelerator image identified by bitstream and expose numUnits
// intersection units. The bitstream "sim" selects the simulator; a
// latency can be appended as "sim:5ms".
func Open(bitstream string, numUnits int) (Overlay, error) {
	if bitstream == SimulatorBitstream || strings.HasPrefix(bitstream, SimulatorBitstream+":") {
		opts := SimulatorOptions{Units: numUnits}
		if latency := strings.TrimPrefix(bitstream, SimulatorBitstream); latency != "" {
			var err error
			opts.Latency, err = time.ParseDuration(latency[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: invalid simulator latency in %q: %v", ErrOverlayLoadFailed, bitstream, err)
			}
		}
		return NewSimulator(opts), nil
	}

	return loadOverlay(bitstream, numUnits)
}
