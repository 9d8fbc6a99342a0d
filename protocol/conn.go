package protocol

import (
	"net"
	"time"
)

// A Conn exchanges length-prefixed messages over a stream connection.
type Conn struct {
	net.Conn

	// Per-message I/O deadline; 0 disables deadlines.
	Timeout time.Duration

	// Largest accepted payload; 0 means any size that fits the prefix.
	MaxMessageSize uint32
}

// Wrap conn.
func NewConn(conn net.Conn, timeout time.Duration) *Conn {
	return &Conn{
		Conn:    conn,
		Timeout: timeout,
	}
}

// Send a message.
func (c *Conn) Send(payload []byte) error {
	if c.Timeout > 0 {
		if err := c.SetWriteDeadline(time.Now().Add(c.Timeout)); err != nil {
			return err
		}
	}
	return WriteMessage(c.Conn, payload)
}

// Receive a message.
func (c *Conn) Receive() ([]byte, error) {
	if c.Timeout > 0 {
		if err := c.SetReadDeadline(time.Now().Add(c.Timeout)); err != nil {
			return nil, err
		}
	}
	return readMessage(c.Conn, c.MaxMessageSize)
}
