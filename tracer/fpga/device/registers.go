package device

// Register offsets of the intersection unit's control interface.
const (
	RegControl         uint32 = 0x00
	RegTriangleCount   uint32 = 0x10
	RegTriangleData    uint32 = 0x18
	RegTriangleIds     uint32 = 0x20
	RegRayCount        uint32 = 0x28
	RegRayData         uint32 = 0x30
	RegOutIds          uint32 = 0x38
	RegOutDistances    uint32 = 0x40
	registerWindowSize uint32 = 0x48
)

// Control/status register bits.
const (
	CtrlStart  uint32 = 1 << 0
	StatusDone uint32 = 1 << 1
	StatusIdle uint32 = 1 << 2
)

// Registers provides 32-bit access to a unit's memory-mapped register window.
type Registers interface {
	Read(offset uint32) uint32
	Write(offset uint32, value uint32)
}

// Write a 64-bit bus address into a register pair (low word first).
func writeAddress(regs Registers, offset uint32, addr uint64) {
	regs.Write(offset, uint32(addr))
	regs.Write(offset+4, uint32(addr>>32))
}

// Read a 64-bit bus address from a register pair.
func readAddress(regs Registers, offset uint32) uint64 {
	return uint64(regs.Read(offset)) | uint64(regs.Read(offset+4))<<32
}

// The unit has finished when it is idle and no longer latches the start bit.
// The done bit is clear-on-read on real hardware so it may or may not be set.
func statusDone(status uint32) bool {
	return status&(CtrlStart|StatusIdle) == StatusIdle
}
