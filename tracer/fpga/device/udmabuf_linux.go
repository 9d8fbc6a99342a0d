//go:build linux

package device

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

const udmabufAlignment = 64

// A UDMABuf serves shared buffers out of a physically contiguous u-dma-buf
// region. Buffers are carved out sequentially; the region is recycled once
// every outstanding buffer has been released.
type UDMABuf struct {
	sync.Mutex

	name string
	file *os.File
	mem  []byte
	phys uint64

	offset int
	live   int
}

// Open the u-dma-buf device with the given name (e.g. "udmabuf0").
func OpenUDMABuf(name string) (*UDMABuf, error) {
	attrDir := filepath.Join(sysfsRoot, "class", "u-dma-buf", name)
	phys, err := readSysfsUint(filepath.Join(attrDir, "phys_addr"))
	if err != nil {
		return nil, fmt.Errorf("udmabuf (%s): could not read physical address: %w", name, err)
	}
	size, err := readSysfsUint(filepath.Join(attrDir, "size"))
	if err != nil {
		return nil, fmt.Errorf("udmabuf (%s): could not read region size: %w", name, err)
	}

	f, err := os.OpenFile(filepath.Join(devRoot, name), os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("udmabuf (%s): %w", name, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("udmabuf (%s): could not map region: %w", name, err)
	}

	return &UDMABuf{name: name, file: f, mem: mem, phys: phys}, nil
}

// Allocate a buffer of size bytes.
func (u *UDMABuf) Allocate(name string, size int) (Buffer, error) {
	u.Lock()
	defer u.Unlock()

	start := (u.offset + udmabufAlignment - 1) &^ (udmabufAlignment - 1)
	if start+size > len(u.mem) {
		return nil, fmt.Errorf("%w (%s: %d bytes requested, %d available in %s)", ErrOutOfSharedMemory, name, size, len(u.mem)-start, u.name)
	}

	u.offset = start + size
	u.live++
	return &regionBuffer{
		parent: u,
		name:   name,
		data:   u.mem[start : start+size : start+size],
		phys:   u.phys + uint64(start),
	}, nil
}

// Unmap the region.
func (u *UDMABuf) Close() error {
	u.Lock()
	defer u.Unlock()

	if u.mem != nil {
		unix.Munmap(u.mem)
		u.mem = nil
	}
	return u.file.Close()
}

func (u *UDMABuf) release() {
	u.Lock()
	defer u.Unlock()

	u.live--
	if u.live == 0 {
		u.offset = 0
	}
}

type regionBuffer struct {
	parent   *UDMABuf
	name     string
	data     []byte
	phys     uint64
	released bool
}

func (b *regionBuffer) Bytes() []byte {
	return b.data
}

func (b *regionBuffer) PhysicalAddress() uint64 {
	return b.phys
}

func (b *regionBuffer) Size() int {
	return len(b.data)
}

func (b *regionBuffer) Release() error {
	if b.released {
		return fmt.Errorf("%w: %s", ErrBufferReleased, b.name)
	}
	b.released = true
	b.parent.release()
	return nil
}
