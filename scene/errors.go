package scene

import "errors"

var (
	ErrInvalidResolution = errors.New("scene: camera resolution must be positive")
	ErrDegenerateCamera  = errors.New("scene: camera eye, look-at and up vectors do not define a basis")
	ErrNoCamera          = errors.New("scene: no camera attached")
	ErrInvalidTriangleId = errors.New("scene: triangle id out of range")
)
