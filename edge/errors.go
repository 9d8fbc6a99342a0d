package edge

import "errors"

var (
	ErrNotListening = errors.New("edge: node is not listening")
	ErrClosed       = errors.New("edge: node closed")
)
