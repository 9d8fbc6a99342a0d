//go:build linux

package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Filesystem roots; overridden by tests.
var (
	sysfsRoot = "/sys"
	devRoot   = "/dev"
)

// A UIO maps the register window of a device exposed through the Linux
// userspace I/O framework.
type UIO struct {
	name string
	file *os.File
	mem  []byte
}

// Open the UIO device whose sysfs name matches name.
func OpenUIO(name string) (*UIO, error) {
	node, err := findUIO(name)
	if err != nil {
		return nil, err
	}

	size, err := readSysfsUint(filepath.Join(sysfsRoot, "class", "uio", node, "maps", "map0", "size"))
	if err != nil {
		return nil, fmt.Errorf("uio (%s): could not read register window size: %w", name, err)
	}

	f, err := os.OpenFile(filepath.Join(devRoot, node), os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("uio (%s): %w", name, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("uio (%s): could not map register window: %w", name, err)
	}

	return &UIO{name: name, file: f, mem: mem}, nil
}

// Read a 32-bit register.
func (u *UIO) Read(offset uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&u.mem[offset])))
}

// Write a 32-bit register.
func (u *UIO) Write(offset uint32, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&u.mem[offset])), value)
}

// Unmap the register window.
func (u *UIO) Close() error {
	if u.mem != nil {
		unix.Munmap(u.mem)
		u.mem = nil
	}
	return u.file.Close()
}

// Scan /sys/class/uio for a device with the given name and return its
// node name (e.g. "uio3").
func findUIO(name string) (string, error) {
	nameFiles, err := filepath.Glob(filepath.Join(sysfsRoot, "class", "uio", "uio*", "name"))
	if err != nil {
		return "", err
	}

	for _, nameFile := range nameFiles {
		data, err := os.ReadFile(nameFile)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == name {
			return filepath.Base(filepath.Dir(nameFile)), nil
		}
	}
	return "", fmt.Errorf("%w: no uio device named %q", ErrNoSuchUnit, name)
}

// Read an integer sysfs attribute. Hex values must use a 0x prefix.
func readSysfsUint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 0, 64)
}
