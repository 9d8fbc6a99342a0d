package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// Size of the big-endian length prefix.
	PrefixSize = 4

	// Payloads are received in chunks of this size.
	chunkSize = 4096
)

// Largest payload that can be addressed by a slice on this platform.
var maxPayloadSize uint64 = math.MaxInt

// Write payload preceded by its length as a 4-byte big-endian integer. The
// prefix and payload are sent with a single write.
func WriteMessage(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(payload))
	}

	msg := make([]byte, PrefixSize+len(payload))
	binary.BigEndian.PutUint32(msg, uint32(len(payload)))
	copy(msg[PrefixSize:], payload)

	_, err := w.Write(msg)
	return err
}

// Read a length-prefixed message and return its payload.
func ReadMessage(r io.Reader) ([]byte, error) {
	return readMessage(r, 0)
}

// Read a length-prefixed message rejecting payloads longer than maxSize
// bytes. A maxSize of 0 disables the check.
func readMessage(r io.Reader, maxSize uint32) ([]byte, error) {
	var prefix [PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncatedPrefix
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if maxSize > 0 && length > maxSize {
		return nil, fmt.Errorf("%w: %d bytes announced, limit is %d", ErrMessageTooLarge, length, maxSize)
	}
	if uint64(length) > maxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes announced, platform limit is %d", ErrMessageTooLarge, length, maxPayloadSize)
	}

	// Grow the buffer as data arrives so a bogus length cannot force a huge
	// allocation up front.
	payload := make([]byte, 0, int(min(uint64(length), 64*chunkSize)))
	chunk := make([]byte, chunkSize)
	for uint32(len(payload)) < length {
		want := int(min(uint64(length)-uint64(len(payload)), chunkSize))
		n, err := r.Read(chunk[:want])
		payload = append(payload, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if uint32(len(payload)) == length {
					break
				}
				return nil, fmt.Errorf("%w: received %d of %d bytes", ErrTruncatedPayload, len(payload), length)
			}
			return nil, err
		}
	}

	return payload, nil
}
