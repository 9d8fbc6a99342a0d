package device

import (
	"errors"
	"reflect"
	"testing"
)

func TestSimulatorAllocator(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{MemorySize: 3 * int(simPageSize)})
	defer sim.Close()

	a, err := sim.Allocate("a", 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := sim.Allocate("b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.PhysicalAddress() == b.PhysicalAddress() {
		t.Fatal("expected distinct bus addresses")
	}
	if a.PhysicalAddress()%simPageSize != 0 || b.PhysicalAddress()%simPageSize != 0 {
		t.Fatal("expected page aligned bus addresses")
	}
	if a.Size() != 10 || len(a.Bytes()) != 10 {
		t.Fatalf("expected buffer of size 10; got %d", a.Size())
	}

	if _, err = sim.Allocate("c", 4*int(simPageSize)); !errors.Is(err, ErrOutOfSharedMemory) {
		t.Fatalf("expected ErrOutOfSharedMemory; got %v", err)
	}

	if err = a.Release(); err != nil {
		t.Fatal(err)
	}
	if err = a.Release(); !errors.Is(err, ErrBufferReleased) {
		t.Fatalf("expected ErrBufferReleased; got %v", err)
	}
	if err = b.Release(); err != nil {
		t.Fatal(err)
	}
	if sim.LiveBuffers() != 0 {
		t.Fatalf("expected no live buffers; got %d", sim.LiveBuffers())
	}
}

func TestSimulatorDoneIsClearOnRead(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{})
	unit := sim.units[0]
	unit.regs[RegControl/4] = StatusDone | StatusIdle

	if status := unit.Read(RegControl); status != StatusDone|StatusIdle {
		t.Fatalf("expected done and idle bits; got 0x%x", status)
	}
	if status := unit.Read(RegControl); status != StatusIdle {
		t.Fatalf("expected done bit to be cleared after read; got 0x%x", status)
	}
}

func TestSimulatorUnits(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{Units: 2})
	if sim.NumUnits() != 2 {
		t.Fatalf("expected 2 units; got %d", sim.NumUnits())
	}
	if _, err := sim.Unit(2); !errors.Is(err, ErrNoSuchUnit) {
		t.Fatalf("expected ErrNoSuchUnit; got %v", err)
	}
}

func TestOpenSimulator(t *testing.T) {
	ov, err := Open("sim:2ms", 2)
	if err != nil {
		t.Fatal(err)
	}
	defer ov.Close()

	sim, ok := ov.(*Simulator)
	if !ok {
		t.Fatalf("expected a simulator overlay; got %T", ov)
	}
	if sim.NumUnits() != 2 || sim.opts.Latency.Milliseconds() != 2 {
		t.Fatalf("unexpected simulator options %+v", sim.opts)
	}

	if _, err = Open("sim:forever", 1); !errors.Is(err, ErrOverlayLoadFailed) {
		t.Fatalf("expected ErrOverlayLoadFailed; got %v", err)
	}
}

func TestBufferEncoding(t *testing.T) {
	ids := []int32{-1, 0, 7, 1 << 30}
	values := []float64{-1.5, 0, 3.25, 1e9}

	idBuf := make([]byte, len(ids)*int32Size)
	putInt32s(idBuf, ids)
	if got := getInt32s(idBuf, len(ids)); !reflect.DeepEqual(got, ids) {
		t.Fatalf("expected %v; got %v", ids, got)
	}
	if idBuf[0] != 0xff || idBuf[4] != 0 || idBuf[8] != 7 {
		t.Fatalf("expected little-endian layout; got % x", idBuf)
	}

	valBuf := make([]byte, len(values)*float64Size)
	putFloat64s(valBuf, values)
	if got := getFloat64s(valBuf, len(values)); !reflect.DeepEqual(got, values) {
		t.Fatalf("expected %v; got %v", values, got)
	}
}

func TestAddressRegisterPair(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{})
	unit := sim.units[0]

	addr := uint64(0x1_2345_6789)
	writeAddress(unit, RegRayData, addr)
	if lo := unit.Read(RegRayData); lo != 0x2345_6789 {
		t.Fatalf("expected low word 0x23456789; got 0x%x", lo)
	}
	if hi := unit.Read(RegRayData + 4); hi != 1 {
		t.Fatalf("expected high word 1; got 0x%x", hi)
	}
	if got := readAddress(unit, RegRayData); got != addr {
		t.Fatalf("expected 0x%x; got 0x%x", addr, got)
	}
}
