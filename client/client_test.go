package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/protocol"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene/codec"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

// Serve a single session, replying to the scene with the given handler.
func startFakeEdge(t *testing.T, reply func(batch *tracer.Batch) []byte) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		payload, err := protocol.ReadMessage(conn)
		if err != nil {
			return
		}
		batch, err := codec.DecodeScene(payload)
		if err != nil {
			return
		}
		if data := reply(batch); data != nil {
			protocol.WriteMessage(conn, data)
		}
		// Hold the connection open until the client goes away.
		conn.Read(make([]byte, 1))
	}()

	return l.Addr().String()
}

func makeBatch(numRays int) *tracer.Batch {
	batch := &tracer.Batch{
		TriangleIds: []int32{4},
		Triangles:   []float64{-1, -1, 0, 1, -1, 0, 0, 1, 0},
	}
	for i := 0; i < numRays; i++ {
		batch.Rays = append(batch.Rays, 0, 0, float64(i+1), 0, 0, -1)
	}
	return batch
}

func TestCompute(t *testing.T) {
	addr := startFakeEdge(t, func(batch *tracer.Batch) []byte {
		res := tracer.NewMissResult(batch.NumRays())
		for i := range res.Ids {
			res.Ids[i] = batch.TriangleIds[0]
			res.Distances[i] = batch.Rays[i*tracer.RayAttrs+2]
		}
		data, _ := codec.EncodeResult(res)
		return data
	})

	c := New(addr)
	c.Timeout = 5 * time.Second
	res, err := c.Compute(context.Background(), makeBatch(3))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if res.Ids[i] != 4 || res.Distances[i] != float64(i+1) {
			t.Fatalf("[ray %d] expected hit (4, %v); got (%d, %v)", i, float64(i+1), res.Ids[i], res.Distances[i])
		}
	}
}

func TestComputeRejectsShortResult(t *testing.T) {
	addr := startFakeEdge(t, func(batch *tracer.Batch) []byte {
		data, _ := codec.EncodeResult(tracer.NewMissResult(batch.NumRays() - 1))
		return data
	})

	_, err := New(addr).Compute(context.Background(), makeBatch(4))
	if !errors.Is(err, tracer.ErrResultLength) {
		t.Fatalf("expected to get ErrResultLength; got %v", err)
	}
}

func TestComputeCancel(t *testing.T) {
	addr := startFakeEdge(t, func(*tracer.Batch) []byte { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(addr).Compute(ctx, makeBatch(2))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected to get context.DeadlineExceeded; got %v", err)
	}
}

func TestComputeConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	if _, err = New(addr).Compute(context.Background(), makeBatch(1)); err == nil {
		t.Fatal("expected to get an error connecting to a closed port")
	}
}
