package protocol

import "errors"

var (
	ErrTruncatedPrefix  = errors.New("protocol: connection closed while reading message length")
	ErrTruncatedPayload = errors.New("protocol: connection closed while reading message payload")
	ErrMessageTooLarge  = errors.New("protocol: message exceeds maximum size")
)
