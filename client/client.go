package client

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/protocol"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene/codec"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

// A Client offloads intersection batches to an edge node. Every Compute call
// runs a full session on a fresh connection.
type Client struct {
	logger log.Logger

	// Edge node address.
	addr string

	// Per-message I/O deadline; 0 disables it.
	Timeout time.Duration
}

// Create a client for the edge node at addr.
func New(addr string) *Client {
	return &Client{
		logger: log.New("client"),
		addr:   addr,
	}
}

// Send batch to the edge node and wait for its results.
func (c *Client) Compute(ctx context.Context, batch *tracer.Batch) (*tracer.Result, error) {
	var payload bytes.Buffer
	if err := codec.EncodeBatch(&payload, batch); err != nil {
		return nil, err
	}

	c.logger.Infof("connecting to edge node %s", c.addr)
	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("client: could not connect to %s: %w", c.addr, err)
	}
	defer nc.Close()

	// Unblock pending I/O if the context is cancelled mid-session.
	stop := context.AfterFunc(ctx, func() { nc.Close() })
	defer stop()

	conn := protocol.NewConn(nc, c.Timeout)
	c.logger.Infof("sending %d triangles and %d rays (%d bytes)", batch.NumTriangles(), batch.NumRays(), payload.Len())
	if err = conn.Send(payload.Bytes()); err != nil {
		return nil, c.sessionError(ctx, "send scene", err)
	}

	c.logger.Info("waiting for results")
	reply, err := conn.Receive()
	if err != nil {
		return nil, c.sessionError(ctx, "receive results", err)
	}

	res, err := codec.DecodeResult(reply)
	if err != nil {
		return nil, err
	}
	if res.Len() != batch.NumRays() {
		return nil, fmt.Errorf("%w: edge node returned %d results for %d rays", tracer.ErrResultLength, res.Len(), batch.NumRays())
	}
	c.logger.Infof("received %d results", res.Len())
	return res, nil
}

func (c *Client) sessionError(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("client: could not %s: %w", stage, err)
}
