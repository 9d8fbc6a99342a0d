package cmd

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net"
	"reflect"
	"strconv"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/cpu"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/fpga/device"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Load the accelerator overlay and check every unit against the software
// tracer.
func ProbeDevices(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	bitstream := cfg.Edge.Bitstream
	if ctx.IsSet("bitstream") {
		bitstream = ctx.String("bitstream")
	}

	overlay, err := device.Open(bitstream, ctx.Int("units"))
	if err != nil {
		return err
	}
	defer overlay.Close()

	batch := probeBatch(ctx.Int("rays"), ctx.Int("triangles"))
	expRes, err := tracer.Run(context.Background(), cpu.NewTracer("cpu", cpu.Sequential, 1), batch, tracer.DefaultWaitPolicy())
	if err != nil {
		return err
	}

	policy := cfg.WaitPolicy()
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Unit", "Status", "Compute time"})

	failed := 0
	for idx := 0; idx < overlay.NumUnits(); idx++ {
		regs, err := overlay.Unit(idx)
		if err != nil {
			return err
		}

		drv := device.NewDriver(fmt.Sprintf("unit-%d", idx), regs, overlay.Allocator())
		start := time.Now()
		res, err := tracer.Run(context.Background(), drv, batch, policy)
		elapsed := time.Since(start)
		drv.Close()

		status := "ok"
		switch {
		case err != nil:
			status = err.Error()
			failed++
		case !reflect.DeepEqual(res, expRes):
			status = "results differ from software tracer"
			failed++
		}
		table.Append([]string{drv.Id(), status, elapsed.String()})
	}

	table.Render()
	logger.Noticef("probed %d unit(s) of %s with %d rays and %d triangles\n%s", overlay.NumUnits(), bitstream, batch.NumRays(), batch.NumTriangles(), buf.String())

	if failed > 0 {
		return fmt.Errorf("%d unit(s) failed the probe", failed)
	}
	return nil
}

// Build a random batch of rays aimed at a cluster of triangles.
func probeBatch(numRays, numTris int) *tracer.Batch {
	rng := rand.New(rand.NewSource(1))
	batch := &tracer.Batch{
		Rays:        make([]float64, 0, numRays*tracer.RayAttrs),
		TriangleIds: make([]int32, numTris),
		Triangles:   make([]float64, numTris*tracer.TriangleAttrs),
	}
	for i := range batch.TriangleIds {
		batch.TriangleIds[i] = int32(i)
	}
	for i := range batch.Triangles {
		batch.Triangles[i] = rng.Float64()*2 - 1
	}
	for i := 0; i < numRays; i++ {
		batch.Rays = append(batch.Rays, 0, 0, 5, rng.Float64()*0.4-0.2, rng.Float64()*0.4-0.2, -1)
	}
	return batch
}

// Split a host:port address.
func splitAddress(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return host, port, nil
}
