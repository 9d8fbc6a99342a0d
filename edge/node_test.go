package edge

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/client"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/config"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/protocol"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/fpga/device"
)

func TestSessionInAllModes(t *testing.T) {
	type spec struct {
		mode     string
		cpuMode  string
		fpgaMode string
	}
	specs := []spec{
		{config.ModeCPU, "sequential", "single"},
		{config.ModeCPU, "multicore", "single"},
		{config.ModeCPU, "reference", "single"},
		{config.ModeFPGA, "sequential", "single"},
		{config.ModeFPGA, "sequential", "multi"},
		{config.ModeHeterogeneous, "multicore", "single"},
		{config.ModeHeterogeneous, "sequential", "multi"},
	}

	numRays := 9
	batch := makeDistinctHitBatch(numRays)
	for index, s := range specs {
		cfg := makeConfig()
		cfg.Processing.Mode = s.mode
		cfg.Processing.CPU.Mode = s.cpuMode
		cfg.Processing.FPGA.Mode = s.fpgaMode

		node, addr := startNode(t, cfg)

		var stats *SessionStats
		node.OnSession = func(s *SessionStats) { stats = s }

		errCh := make(chan error, 1)
		go func() { errCh <- node.Serve(context.Background()) }()

		res, err := client.New(addr).Compute(context.Background(), batch)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if err = <-errCh; err != nil {
			t.Fatalf("[spec %d] serve: %v", index, err)
		}
		node.Close()

		for i := 0; i < numRays; i++ {
			if res.Ids[i] != int32(i) {
				t.Fatalf("[spec %d] expected ray %d to hit triangle %d; got %d", index, i, i, res.Ids[i])
			}
		}
		if stats == nil || stats.NumRays != numRays || stats.NumTriangles != numRays || stats.Mode != s.mode {
			t.Fatalf("[spec %d] unexpected session stats %+v", index, stats)
		}
		if s.mode == config.ModeHeterogeneous && len(stats.Tracers) != 2 {
			t.Fatalf("[spec %d] expected stats for 2 tracers; got %d", index, len(stats.Tracers))
		}
	}
}

func TestMissSentinel(t *testing.T) {
	cfg := makeConfig()
	node, addr := startNode(t, cfg)
	defer node.Close()
	go node.Serve(context.Background())

	batch := makeDistinctHitBatch(2)
	// Point the second ray away from the mesh.
	batch.Rays[11] = 1

	res, err := client.New(addr).Compute(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ids[1] != tracer.MissId || res.Distances[1] < 1e9 {
		t.Fatalf("expected a miss for ray 1; got id %d distance %v", res.Ids[1], res.Distances[1])
	}
}

func TestTruncatedSceneAbortsSession(t *testing.T) {
	cfg := makeConfig()
	node, addr := startNode(t, cfg)
	defer node.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- node.Serve(context.Background()) }()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	conn.Write([]byte{0, 0, 1, 0})
	conn.Write([]byte("1 1\n0\n"))
	conn.Close()

	if err = <-errCh; !errors.Is(err, protocol.ErrTruncatedPayload) {
		t.Fatalf("expected ErrTruncatedPayload; got %v", err)
	}
}

func TestServeForeverSurvivesFailedSessions(t *testing.T) {
	cfg := makeConfig()
	cfg.Edge.ServeForever = true
	node, addr := startNode(t, cfg)
	defer node.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- node.Serve(ctx) }()

	// A malformed scene fails the session without a reply.
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	if err = protocol.WriteMessage(conn, []byte("2 0\n0\n")); err != nil {
		t.Fatal(err)
	}
	if _, err = protocol.ReadMessage(conn); !errors.Is(err, protocol.ErrTruncatedPrefix) {
		t.Fatalf("expected the node to close the connection without a reply; got %v", err)
	}
	conn.Close()

	// The node keeps serving.
	for i := 0; i < 2; i++ {
		if _, err = client.New(addr).Compute(context.Background(), makeDistinctHitBatch(3)); err != nil {
			t.Fatal(err)
		}
	}

	cancel()
	select {
	case err = <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled; got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Serve to return")
	}
}

func TestHardwareTimeoutFailsSession(t *testing.T) {
	cfg := makeConfig()
	cfg.Processing.Mode = config.ModeFPGA
	cfg.Edge.Bitstream = "sim:1h"
	cfg.Processing.FPGA.Timeout = config.Duration(20 * time.Millisecond)

	node, addr := startNode(t, cfg)
	defer node.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- node.Serve(context.Background()) }()

	if _, err := client.New(addr).Compute(context.Background(), makeDistinctHitBatch(2)); err == nil {
		t.Fatal("expected the session to fail")
	}
	if err := <-errCh; !errors.Is(err, tracer.ErrTimeout) {
		t.Fatalf("expected ErrTimeout; got %v", err)
	}
}

func TestServeForeverRecoversAfterHardwareTimeout(t *testing.T) {
	cfg := makeConfig()
	cfg.Processing.Mode = config.ModeFPGA
	cfg.Edge.Bitstream = "sim:100ms"
	cfg.Edge.ServeForever = true
	cfg.Processing.FPGA.Timeout = config.Duration(20 * time.Millisecond)

	node, addr := startNode(t, cfg)
	defer node.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go node.Serve(ctx)

	if _, err := client.New(addr).Compute(context.Background(), makeDistinctHitBatch(2)); err == nil {
		t.Fatal("expected the first session to time out")
	}

	// Let the slow unit finish; the next session reclaims it. An empty batch
	// completes without waiting for the unit.
	time.Sleep(300 * time.Millisecond)
	res, err := client.New(addr).Compute(context.Background(), makeDistinctHitBatch(0))
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 0 {
		t.Fatalf("expected an empty result; got %d entries", res.Len())
	}
}

func TestNewEngineReleasesTracersOnOverlayFailure(t *testing.T) {
	cfg := makeConfig()
	cfg.Processing.Mode = config.ModeHeterogeneous
	cfg.Edge.Bitstream = "sim:not-a-duration"
	if _, err := NewEngine(cfg); !errors.Is(err, device.ErrOverlayLoadFailed) {
		t.Fatalf("expected ErrOverlayLoadFailed; got %v", err)
	}
}

func TestServeRequiresListener(t *testing.T) {
	node, err := NewNode(makeConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer node.Close()

	if err = node.Serve(context.Background()); !errors.Is(err, ErrNotListening) {
		t.Fatalf("expected ErrNotListening; got %v", err)
	}
	if node.Addr() != nil {
		t.Fatal("expected no bound address")
	}
}

func TestNewEngineRejectsUnknownMode(t *testing.T) {
	cfg := makeConfig()
	cfg.Processing.Mode = "gpu"
	if _, err := NewEngine(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig; got %v", err)
	}
}

func makeConfig() *config.Config {
	cfg := config.Default()
	cfg.Edge.IP = "127.0.0.1"
	cfg.Edge.Port = 0
	cfg.Edge.Bitstream = "sim"
	cfg.Edge.IOTimeout = config.Duration(5 * time.Second)
	cfg.Processing.FPGA.Timeout = config.Duration(5 * time.Second)
	cfg.Processing.Heterogeneous.FPGALoad = 0.5
	return cfg
}

func startNode(t *testing.T, cfg *config.Config) (*Node, string) {
	node, err := NewNode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err = node.Listen(); err != nil {
		t.Fatal(err)
	}
	return node, node.Addr().String()
}

// Build a batch where ray i only hits triangle i.
func makeDistinctHitBatch(numRays int) *tracer.Batch {
	batch := &tracer.Batch{}
	for i := 0; i < numRays; i++ {
		x := float64(10 * i)
		batch.TriangleIds = append(batch.TriangleIds, int32(i))
		batch.Triangles = append(batch.Triangles, x, 0, 0, x+1, 0, 0, x, 1, 0)
		batch.Rays = append(batch.Rays, x+0.25, 0.25, 1, 0, 0, -1)
	}
	return batch
}
