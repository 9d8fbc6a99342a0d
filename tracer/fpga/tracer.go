package fpga

import (
	"fmt"
	"strings"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/fpga/device"
)

type Mode uint8

// Supported unit configurations.
const (
	Single Mode = iota
	Multi
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Multi:
		return "multi"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Get the number of intersection units used by this mode.
func (m Mode) Units() int {
	if m == Multi {
		return 2
	}
	return 1
}

// Parse a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "single", "":
		return Single, nil
	case "multi", "dual":
		return Multi, nil
	}
	return Single, fmt.Errorf("fpga tracer: unknown mode %q", name)
}

// A Tracer runs batches on one or two accelerator units. When two units
// are available, the first half of the rays (n/2) goes to the first unit
// and the rest to the second one.
type Tracer struct {
	logger log.Logger

	id      string
	overlay device.Overlay
	drivers []*device.Driver

	// Number of rays assigned to each driver by the last Compute call.
	shares []int
}

// Create a tracer that drives mode.Units() units of overlay. The tracer
// takes ownership of the overlay and closes it when the tracer is closed.
func NewTracer(id string, overlay device.Overlay, mode Mode) (*Tracer, error) {
	numUnits := mode.Units()
	if overlay.NumUnits() < numUnits {
		return nil, fmt.Errorf("fpga tracer (%s): mode %s requires %d units; overlay exposes %d", id, mode, numUnits, overlay.NumUnits())
	}

	tr := &Tracer{
		logger:  log.New(fmt.Sprintf("fpga tracer (%s)", id)),
		id:      id,
		overlay: overlay,
		drivers: make([]*device.Driver, numUnits),
		shares:  make([]int, numUnits),
	}
	for idx := range tr.drivers {
		regs, err := overlay.Unit(idx)
		if err != nil {
			return nil, err
		}
		tr.drivers[idx] = device.NewDriver(fmt.Sprintf("%s-%d", id, idx), regs, overlay.Allocator())
	}

	tr.logger.Debugf("attached to %d unit(s)", numUnits)
	return tr, nil
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get the number of units used by the tracer.
func (tr *Tracer) NumUnits() int {
	return len(tr.drivers)
}

// Start all units. Compute returns once every unit has been started.
func (tr *Tracer) Compute(batch *tracer.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	numRays := batch.NumRays()
	if len(tr.drivers) == 1 {
		tr.shares[0] = numRays
		return tr.drivers[0].Compute(batch)
	}

	// No unit is started until every unit is provisioned.
	half := numRays / 2
	parts := []*tracer.Batch{batch.Slice(0, half), batch.Slice(half, numRays)}
	for idx, drv := range tr.drivers {
		if err := drv.Provision(parts[idx]); err != nil {
			for provisioned := 0; provisioned < idx; provisioned++ {
				tr.drivers[provisioned].Close()
			}
			return err
		}
		tr.shares[idx] = parts[idx].NumRays()
	}
	for _, drv := range tr.drivers {
		if err := drv.Start(); err != nil {
			return err
		}
	}

	tr.logger.Debugf("split %d rays into unit shares %v", numRays, tr.shares)
	return nil
}

// Check whether all units have completed.
func (tr *Tracer) IsDone() bool {
	for _, drv := range tr.drivers {
		if !drv.IsDone() {
			return false
		}
	}
	return true
}

// Collect unit results in unit order.
func (tr *Tracer) Results() (*tracer.Result, error) {
	if !tr.IsDone() {
		return nil, tracer.ErrNotDone
	}

	results := make([]*tracer.Result, len(tr.drivers))
	for idx, drv := range tr.drivers {
		res, err := drv.Results()
		if err != nil {
			return nil, err
		}
		if res.Len() != tr.shares[idx] {
			return nil, fmt.Errorf("%w (unit %s: %d results for %d rays)", tracer.ErrResultLength, drv.Id(), res.Len(), tr.shares[idx])
		}
		results[idx] = res
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return tracer.Concat(results...), nil
}

// Shutdown the units and release the overlay.
func (tr *Tracer) Close() {
	for _, drv := range tr.drivers {
		drv.Close()
	}
	if err := tr.overlay.Close(); err != nil {
		tr.logger.Warningf("could not release overlay: %v", err)
	}
}
