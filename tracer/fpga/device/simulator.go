package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

const (
	simBaseAddress uint64 = 0x10000000
	simPageSize    uint64 = 4096
)

// Simulator options.
type SimulatorOptions struct {
	// Number of simulated intersection units.
	Units int

	// Extra time each unit spends on a computation.
	Latency time.Duration

	// If set, started units never complete.
	Stuck bool

	// Shared memory capacity in bytes; 0 means unlimited.
	MemorySize int
}

// A Simulator emulates an accelerator overlay: a shared memory arena
// addressed by bus address and a set of intersection units driven through
// their register windows.
type Simulator struct {
	sync.Mutex

	logger log.Logger
	opts   SimulatorOptions

	nextAddr uint64
	used     int
	buffers  map[uint64]*simBuffer

	units []*SimulatedUnit
}

// Create a new simulator.
func NewSimulator(opts SimulatorOptions) *Simulator {
	if opts.Units <= 0 {
		opts.Units = 1
	}

	sim := &Simulator{
		logger:   log.New("accelerator simulator"),
		opts:     opts,
		nextAddr: simBaseAddress,
		buffers:  make(map[uint64]*simBuffer),
		units:    make([]*SimulatedUnit, opts.Units),
	}
	for idx := range sim.units {
		sim.units[idx] = &SimulatedUnit{
			sim:  sim,
			name: fmt.Sprintf("intersectFPGA_%d", idx),
		}
		sim.units[idx].regs[RegControl/4] = StatusIdle
	}
	return sim
}

// Get the number of simulated units.
func (s *Simulator) NumUnits() int {
	return len(s.units)
}

// Get the register window of the idx-th unit.
func (s *Simulator) Unit(idx int) (Registers, error) {
	if idx < 0 || idx >= len(s.units) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchUnit, idx)
	}
	return s.units[idx], nil
}

// Get the simulated shared memory allocator.
func (s *Simulator) Allocator() Allocator {
	return s
}

// Allocate a shared buffer from the simulated arena.
func (s *Simulator) Allocate(name string, size int) (Buffer, error) {
	s.Lock()
	defer s.Unlock()

	if s.opts.MemorySize > 0 && s.used+size > s.opts.MemorySize {
		return nil, fmt.Errorf("%w (%s: %d bytes requested, %d available)", ErrOutOfSharedMemory, name, size, s.opts.MemorySize-s.used)
	}

	buf := &simBuffer{
		sim:  s,
		name: name,
		data: make([]byte, size),
		addr: s.nextAddr,
	}
	s.buffers[buf.addr] = buf
	s.used += size

	// Keep every buffer page aligned and never hand out the same address twice.
	pages := (uint64(size) + simPageSize - 1) / simPageSize
	if pages == 0 {
		pages = 1
	}
	s.nextAddr += pages * simPageSize

	return buf, nil
}

// Get the number of allocated buffers that have not been released.
func (s *Simulator) LiveBuffers() int {
	s.Lock()
	defer s.Unlock()
	return len(s.buffers)
}

// Release all simulator resources.
func (s *Simulator) Close() error {
	s.Lock()
	defer s.Unlock()
	s.buffers = make(map[uint64]*simBuffer)
	s.used = 0
	return nil
}

// Resolve a bus address range to host memory.
func (s *Simulator) lookup(addr uint64, size int) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	buf, ok := s.buffers[addr]
	if !ok {
		return nil, fmt.Errorf("bus error: no buffer mapped at 0x%x", addr)
	}
	if size > len(buf.data) {
		return nil, fmt.Errorf("bus error: access of %d bytes overruns buffer %s (%d bytes)", size, buf.name, len(buf.data))
	}
	return buf.data[:size], nil
}

type simBuffer struct {
	sim      *Simulator
	name     string
	data     []byte
	addr     uint64
	released bool
}

func (b *simBuffer) Bytes() []byte {
	return b.data
}

func (b *simBuffer) PhysicalAddress() uint64 {
	return b.addr
}

func (b *simBuffer) Size() int {
	return len(b.data)
}

func (b *simBuffer) Release() error {
	b.sim.Lock()
	defer b.sim.Unlock()

	if b.released {
		return fmt.Errorf("%w: %s", ErrBufferReleased, b.name)
	}
	b.released = true
	delete(b.sim.buffers, b.addr)
	b.sim.used -= len(b.data)
	return nil
}

// A SimulatedUnit emulates the register interface of one intersection unit.
type SimulatedUnit struct {
	sync.Mutex

	sim  *Simulator
	name string
	regs [registerWindowSize / 4]uint32

	// Number of computations started on this unit.
	runs int
}

// Read a register. Reading the control register clears the done bit.
func (u *SimulatedUnit) Read(offset uint32) uint32 {
	u.Lock()
	defer u.Unlock()

	if offset >= registerWindowSize {
		return 0
	}
	value := u.regs[offset/4]
	if offset == RegControl {
		u.regs[offset/4] &^= StatusDone
	}
	return value
}

// Write a register. Setting the start bit of an idle unit starts a computation.
func (u *SimulatedUnit) Write(offset uint32, value uint32) {
	u.Lock()
	defer u.Unlock()

	if offset >= registerWindowSize {
		return
	}

	if offset != RegControl {
		u.regs[offset/4] = value
		return
	}

	if value&CtrlStart == 0 || u.regs[RegControl/4]&CtrlStart != 0 {
		return
	}
	u.regs[RegControl/4] = CtrlStart
	u.runs++

	snapshot := u.regs
	go u.run(snapshot)
}

// Get the number of computations started on this unit.
func (u *SimulatedUnit) Runs() int {
	u.Lock()
	defer u.Unlock()
	return u.runs
}

func (u *SimulatedUnit) run(regs [registerWindowSize / 4]uint32) {
	if u.sim.opts.Latency > 0 {
		time.Sleep(u.sim.opts.Latency)
	}
	if u.sim.opts.Stuck {
		return
	}

	reg := func(offset uint32) uint32 { return regs[offset/4] }
	addr := func(offset uint32) uint64 { return uint64(regs[offset/4]) | uint64(regs[offset/4+1])<<32 }

	if err := u.execute(int(reg(RegTriangleCount)), int(reg(RegRayCount)), addr); err != nil {
		// A faulting unit never signals completion.
		u.sim.logger.Errorf("%s: %v", u.name, err)
		return
	}

	u.Lock()
	u.regs[RegControl/4] = StatusDone | StatusIdle
	u.Unlock()
}

func (u *SimulatedUnit) execute(numTris, numRays int, addr func(uint32) uint64) error {
	tData, err := u.sim.lookup(addr(RegTriangleData), numTris*tracer.TriangleAttrs*float64Size)
	if err != nil {
		return err
	}
	tIds, err := u.sim.lookup(addr(RegTriangleIds), numTris*int32Size)
	if err != nil {
		return err
	}
	rData, err := u.sim.lookup(addr(RegRayData), numRays*tracer.RayAttrs*float64Size)
	if err != nil {
		return err
	}
	oIds, err := u.sim.lookup(addr(RegOutIds), numRays*int32Size)
	if err != nil {
		return err
	}
	oDist, err := u.sim.lookup(addr(RegOutDistances), numRays*float64Size)
	if err != nil {
		return err
	}

	batch := &tracer.Batch{
		Triangles:   getFloat64s(tData, numTris*tracer.TriangleAttrs),
		TriangleIds: getInt32s(tIds, numTris),
		Rays:        getFloat64s(rData, numRays*tracer.RayAttrs),
	}

	res := tracer.NewMissResult(numRays)
	for ray := 0; ray < numRays; ray++ {
		if tri, dist := batch.Nearest(ray); tri != -1 {
			res.Ids[ray], res.Distances[ray] = batch.TriangleIds[tri], dist
		}
	}

	putInt32s(oIds, res.Ids)
	putFloat64s(oDist, res.Distances)
	return nil
}
