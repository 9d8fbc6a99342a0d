package device

import (
	"encoding/binary"
	"math"
)

// Element sizes of the shared buffer operands.
const (
	int32Size   = 4
	float64Size = 8
)

// A Buffer is a memory region shared between the host and an accelerator.
// It remains valid until Release is called.
type Buffer interface {
	// Host view of the buffer contents.
	Bytes() []byte

	// Bus address used by the accelerator to access the buffer.
	PhysicalAddress() uint64

	// Allocated size in bytes.
	Size() int

	// Release the buffer.
	Release() error
}

// An Allocator hands out host/device shared buffers.
type Allocator interface {
	Allocate(name string, size int) (Buffer, error)
}

// Copy int32 values into a buffer using the device (little-endian) layout.
func putInt32s(buf []byte, values []int32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*int32Size:], uint32(v))
	}
}

// Copy float64 values into a buffer using the device (little-endian) layout.
func putFloat64s(buf []byte, values []float64) {
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*float64Size:], math.Float64bits(v))
	}
}

// Decode count int32 values from a buffer.
func getInt32s(buf []byte, count int) []int32 {
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*int32Size:]))
	}
	return out
}

// Decode count float64 values from a buffer.
func getFloat64s(buf []byte, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*float64Size:]))
	}
	return out
}
