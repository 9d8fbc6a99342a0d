package device

import (
	"fmt"
	"sync"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

type State uint8

// Driver states.
const (
	Idle State = iota
	Provisioning
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Provisioning:
		return "provisioning"
	case Running:
		return "running"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Shared buffer operands, one allocation each per compute call.
type operand uint8

const (
	triangleData operand = iota
	triangleIds
	rayData
	outIds
	outDistances
	numOperands
)

func (op operand) String() string {
	switch op {
	case triangleData:
		return "triangle data"
	case triangleIds:
		return "triangle ids"
	case rayData:
		return "ray data"
	case outIds:
		return "output ids"
	case outDistances:
		return "output distances"
	}
	panic("accelerator: unsupported operand")
}

// A Driver controls a single hardware intersection unit.
type Driver struct {
	sync.Mutex

	logger log.Logger

	// Unit name.
	name string

	regs  Registers
	alloc Allocator

	state   State
	buffers [numOperands]Buffer

	// Operand counts for the in-flight computation.
	numRays int
}

// Create a driver for the unit behind regs, allocating buffers from alloc.
func NewDriver(name string, regs Registers, alloc Allocator) *Driver {
	return &Driver{
		logger: log.New(fmt.Sprintf("accelerator (%s)", name)),
		name:   name,
		regs:   regs,
		alloc:  alloc,
	}
}

// Get unit name.
func (d *Driver) Id() string {
	return d.name
}

// Get driver state.
func (d *Driver) State() State {
	d.Lock()
	defer d.Unlock()

	if d.isDone() {
		return Done
	}
	return d.state
}

// Copy the batch into freshly allocated shared buffers, program the unit
// registers and start the unit. Compute returns as soon as the unit has been
// started; use IsDone to detect completion.
func (d *Driver) Compute(batch *tracer.Batch) error {
	if err := d.Provision(batch); err != nil {
		return err
	}
	return d.Start()
}

// Allocate and fill the shared buffers for batch and program the unit
// registers without starting the unit. A provisioned driver is either
// started with Start or rolled back with Close.
//
// A unit that completed a computation whose results were never collected
// is reclaimed and its results discarded.
func (d *Driver) Provision(batch *tracer.Batch) error {
	d.Lock()
	defer d.Unlock()

	if d.isDone() {
		d.logger.Warningf("discarding uncollected results of %d rays", d.numRays)
		d.releaseBuffers()
		d.state = Idle
	}
	if d.state != Idle {
		return fmt.Errorf("%w (unit %s is %s)", ErrBusy, d.name, d.state)
	}
	if err := batch.Validate(); err != nil {
		return err
	}

	numTris, numRays := batch.NumTriangles(), batch.NumRays()
	d.numRays = numRays
	d.state = Provisioning

	// Nothing to do; the unit is not touched.
	if numRays == 0 {
		return nil
	}

	d.logger.Debugf("allocating shared buffers for %d triangles and %d rays", numTris, numRays)
	sizes := [numOperands]int{
		triangleData: len(batch.Triangles) * float64Size,
		triangleIds:  numTris * int32Size,
		rayData:      len(batch.Rays) * float64Size,
		outIds:       numRays * int32Size,
		outDistances: numRays * float64Size,
	}
	for op := operand(0); op < numOperands; op++ {
		buf, err := d.alloc.Allocate(fmt.Sprintf("%s/%s", d.name, op), sizes[op])
		if err != nil {
			d.releaseBuffers()
			d.state = Idle
			return fmt.Errorf("accelerator (%s): could not allocate %s buffer of size %d: %w", d.name, op, sizes[op], err)
		}
		d.buffers[op] = buf
	}

	putFloat64s(d.buffers[triangleData].Bytes(), batch.Triangles)
	putInt32s(d.buffers[triangleIds].Bytes(), batch.TriangleIds)
	putFloat64s(d.buffers[rayData].Bytes(), batch.Rays)

	d.logger.Debugf("programming unit registers")
	d.regs.Write(RegTriangleCount, uint32(numTris))
	writeAddress(d.regs, RegTriangleData, d.buffers[triangleData].PhysicalAddress())
	writeAddress(d.regs, RegTriangleIds, d.buffers[triangleIds].PhysicalAddress())
	d.regs.Write(RegRayCount, uint32(numRays))
	writeAddress(d.regs, RegRayData, d.buffers[rayData].PhysicalAddress())
	writeAddress(d.regs, RegOutIds, d.buffers[outIds].PhysicalAddress())
	writeAddress(d.regs, RegOutDistances, d.buffers[outDistances].PhysicalAddress())
	return nil
}

// Start a provisioned unit.
func (d *Driver) Start() error {
	d.Lock()
	defer d.Unlock()

	if d.state != Provisioning {
		return fmt.Errorf("%w (unit %s is %s)", ErrNotProvisioned, d.name, d.state)
	}

	if d.numRays != 0 {
		d.logger.Debugf("starting unit")
		d.regs.Write(RegControl, CtrlStart)
	}
	d.state = Running
	return nil
}

// Check whether the running computation has completed. IsDone only reads the
// status register and never changes the driver state.
func (d *Driver) IsDone() bool {
	d.Lock()
	defer d.Unlock()
	return d.isDone()
}

func (d *Driver) isDone() bool {
	if d.state != Running {
		return false
	}
	if d.numRays == 0 {
		return true
	}
	return statusDone(d.regs.Read(RegControl))
}

// Copy the unit outputs out of the shared buffers, release them and return
// the driver to the idle state.
func (d *Driver) Results() (*tracer.Result, error) {
	d.Lock()
	defer d.Unlock()

	if !d.isDone() {
		return nil, fmt.Errorf("%w (unit %s is %s)", ErrNotDone, d.name, d.state)
	}

	res := tracer.NewMissResult(0)
	if d.numRays != 0 {
		res = &tracer.Result{
			Ids:       getInt32s(d.buffers[outIds].Bytes(), d.numRays),
			Distances: getFloat64s(d.buffers[outDistances].Bytes(), d.numRays),
		}
	}

	d.releaseBuffers()
	d.state = Idle
	return res, nil
}

// Release any buffers held by the driver and return it to the idle state.
// The buffers of a unit that is still running stay mapped and the driver
// stays busy, since the unit may still write into them.
func (d *Driver) Close() {
	d.Lock()
	defer d.Unlock()

	if d.state == Running && !d.isDone() {
		d.logger.Warningf("unit is still running; keeping its shared buffers")
		return
	}
	d.releaseBuffers()
	d.state = Idle
}

func (d *Driver) releaseBuffers() {
	for op, buf := range d.buffers {
		if buf == nil {
			continue
		}
		if err := buf.Release(); err != nil {
			d.logger.Warningf("could not release %s buffer: %v", operand(op), err)
		}
		d.buffers[op] = nil
	}
}
