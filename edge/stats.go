package edge

import (
	"net"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

// Statistics for a single session.
type SessionStats struct {
	// Remote peer address.
	Peer net.Addr

	// Processing mode used for the session.
	Mode string

	NumTriangles int
	NumRays      int

	// Payload sizes in bytes.
	SceneBytes  int
	ResultBytes int

	// Stage timings.
	ReceiveTime time.Duration
	DecodeTime  time.Duration
	TraceTime   time.Duration
	EncodeTime  time.Duration
	SendTime    time.Duration

	// Per-tracer breakdown of the trace stage.
	Tracers []tracer.TracerStat
}

// Get the total session time.
func (s *SessionStats) Total() time.Duration {
	return s.ReceiveTime + s.DecodeTime + s.TraceTime + s.EncodeTime + s.SendTime
}
