package edge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/config"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/protocol"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene/codec"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

// A Node accepts client sessions and answers each scene with the
// intersection results computed by its engine. Sessions are served one at a
// time.
type Node struct {
	logger log.Logger
	cfg    *config.Config
	engine tracer.Engine

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	// Invoked after every successful session.
	OnSession func(*SessionStats)
}

// Create a node for cfg, provisioning the tracers required by the
// configured processing mode.
func NewNode(cfg *config.Config) (*Node, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return NewNodeWithEngine(cfg, engine), nil
}

// Create a node that uses the supplied engine.
func NewNodeWithEngine(cfg *config.Config, engine tracer.Engine) *Node {
	return &Node{
		logger: log.New("edge node"),
		cfg:    cfg,
		engine: engine,
	}
}

// Bind the configured address.
func (n *Node) Listen() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}

	l, err := net.Listen("tcp", n.cfg.Address())
	if err != nil {
		return fmt.Errorf("edge: could not listen on %s: %w", n.cfg.Address(), err)
	}
	n.listener = l
	n.logger.Noticef("listening on %s (mode: %s)", l.Addr(), n.cfg.Processing.Mode)
	return nil
}

// Get the bound address or nil if the node is not listening.
func (n *Node) Addr() net.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listener == nil {
		return nil
	}
	return n.listener.Addr()
}

// Accept and serve sessions. Unless the node is configured to serve
// forever, Serve returns after the first session together with its error.
// Otherwise session errors are logged and Serve keeps accepting until ctx is
// cancelled or the node is closed.
func (n *Node) Serve(ctx context.Context) error {
	n.mu.Lock()
	l := n.listener
	n.mu.Unlock()
	if l == nil {
		return ErrNotListening
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if n.isClosed() {
				return ErrClosed
			}
			return fmt.Errorf("edge: accept failed: %w", err)
		}

		_, err = n.HandleSession(ctx, conn)
		if !n.cfg.Edge.ServeForever {
			return err
		}
		if err != nil {
			n.logger.Errorf("session with %s failed: %v", conn.RemoteAddr(), err)
		}
	}
}

// Serve a single session on conn and close it. No result is sent if any
// stage fails.
func (n *Node) HandleSession(ctx context.Context, c net.Conn) (*SessionStats, error) {
	defer c.Close()

	stats := &SessionStats{
		Peer: c.RemoteAddr(),
		Mode: n.cfg.Processing.Mode,
	}
	n.logger.Noticef("session started with %s", stats.Peer)

	conn := protocol.NewConn(c, time.Duration(n.cfg.Edge.IOTimeout))
	conn.MaxMessageSize = n.cfg.Edge.MaxMessageSize

	start := time.Now()
	payload, err := conn.Receive()
	if err != nil {
		return nil, fmt.Errorf("edge: could not receive scene: %w", err)
	}
	stats.ReceiveTime = time.Since(start)
	stats.SceneBytes = len(payload)
	n.logger.Infof("received %d byte scene in %s", len(payload), stats.ReceiveTime)

	start = time.Now()
	batch, err := codec.DecodeScene(payload)
	if err != nil {
		return nil, err
	}
	stats.DecodeTime = time.Since(start)
	stats.NumTriangles, stats.NumRays = batch.NumTriangles(), batch.NumRays()
	n.logger.Infof("decoded %d triangles and %d rays in %s", stats.NumTriangles, stats.NumRays, stats.DecodeTime)

	start = time.Now()
	res, err := n.engine.Trace(ctx, batch)
	if err != nil {
		return nil, err
	}
	stats.TraceTime = time.Since(start)
	stats.Tracers = n.engine.Stats().Tracers
	n.logger.Infof("traced %d rays in %s (%s)", stats.NumRays, stats.TraceTime, stats.Mode)

	start = time.Now()
	out, err := codec.EncodeResult(res)
	if err != nil {
		return nil, err
	}
	stats.EncodeTime = time.Since(start)
	stats.ResultBytes = len(out)

	start = time.Now()
	if err = conn.Send(out); err != nil {
		return nil, fmt.Errorf("edge: could not send result: %w", err)
	}
	stats.SendTime = time.Since(start)
	n.logger.Noticef("session with %s completed in %s", stats.Peer, stats.Total())

	if n.OnSession != nil {
		n.OnSession(stats)
	}
	return stats, nil
}

// Stop listening and shut down the engine.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	if n.listener != nil {
		if err := n.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			n.logger.Warningf("could not close listener: %v", err)
		}
	}
	n.engine.Close()
}

func (n *Node) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}
