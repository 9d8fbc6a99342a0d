package renderer

import "errors"

var (
	ErrCameraNotDefined = errors.New("renderer: no camera defined")
	ErrResultLength     = errors.New("renderer: result length does not match camera resolution")
)
