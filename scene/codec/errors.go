package codec

import "errors"

var (
	ErrMalformedScene  = errors.New("codec: malformed scene payload")
	ErrMalformedResult = errors.New("codec: malformed result payload")
)
