//go:build linux

package device

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
)

var (
	firmwareRoot = "/lib/firmware"
	fpgaManager  = "fpga0"
	sharedRegion = "udmabuf0"
)

// An overlay loaded through the Linux fpga_manager.
type hwOverlay struct {
	units []*UIO
	mem   *UDMABuf
}

// Program the fabric with bitstream and open the register windows of the
// intersection units it contains.
func loadOverlay(bitstream string, numUnits int) (Overlay, error) {
	logger := log.New("accelerator overlay")

	firmware, err := installFirmware(bitstream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOverlayLoadFailed, err)
	}

	mgrDir := filepath.Join(sysfsRoot, "class", "fpga_manager", fpgaManager)
	if err = os.WriteFile(filepath.Join(mgrDir, "flags"), []byte("0"), 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOverlayLoadFailed, err)
	}
	if err = os.WriteFile(filepath.Join(mgrDir, "firmware"), []byte(firmware), 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOverlayLoadFailed, err)
	}
	state, err := os.ReadFile(filepath.Join(mgrDir, "state"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOverlayLoadFailed, err)
	}
	if s := strings.TrimSpace(string(state)); s != "operating" {
		return nil, fmt.Errorf("%w: fpga manager reports state %q after loading %s", ErrOverlayLoadFailed, s, firmware)
	}
	logger.Infof("loaded bitstream %s", firmware)

	ov := &hwOverlay{}
	for idx := 0; idx < numUnits; idx++ {
		uio, err := OpenUIO(fmt.Sprintf("intersectFPGA_%d", idx))
		if err != nil {
			ov.Close()
			return nil, fmt.Errorf("%w: %v", ErrOverlayLoadFailed, err)
		}
		ov.units = append(ov.units, uio)
	}

	if ov.mem, err = OpenUDMABuf(sharedRegion); err != nil {
		ov.Close()
		return nil, fmt.Errorf("%w: %v", ErrOverlayLoadFailed, err)
	}

	return ov, nil
}

// Make sure the bitstream lives in the firmware search path and return
// its name relative to it.
func installFirmware(bitstream string) (string, error) {
	name := filepath.Base(bitstream)
	target := filepath.Join(firmwareRoot, name)
	if _, err := os.Stat(target); err == nil {
		return name, nil
	}

	src, err := os.Open(bitstream)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return name, dst.Close()
}

func (ov *hwOverlay) NumUnits() int {
	return len(ov.units)
}

func (ov *hwOverlay) Unit(idx int) (Registers, error) {
	if idx < 0 || idx >= len(ov.units) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchUnit, idx)
	}
	return ov.units[idx], nil
}

func (ov *hwOverlay) Allocator() Allocator {
	return ov.mem
}

func (ov *hwOverlay) Close() error {
	for _, unit := range ov.units {
		unit.Close()
	}
	ov.units = nil

	if ov.mem != nil {
		err := ov.mem.Close()
		ov.mem = nil
		return err
	}
	return nil
}
