//go:build !linux

package device

func loadOverlay(bitstream string, numUnits int) (Overlay, error) {
	return nil, ErrUnsupportedPlatform
}
