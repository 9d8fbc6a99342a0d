package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/client"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/config"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/renderer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene/reader"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/urfave/cli"
)

// Offload the intersection work of a mesh to an edge node and render the
// results.
func RunClient(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet("edge") {
		cfg.Edge.IP, cfg.Edge.Port, err = splitAddress(ctx.String("edge"))
		if err != nil {
			return err
		}
	}
	if err = applyClientFlags(ctx, cfg); err != nil {
		return err
	}

	sc, batch, err := buildScene(cfg)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(cfg.Address())
	c.Timeout = time.Duration(cfg.Edge.IOTimeout)

	start := time.Now()
	res, err := c.Compute(sigCtx, batch)
	if err != nil {
		return err
	}
	logger.Noticef("finished intersection calculations in %s", time.Since(start))

	return renderResult(cfg, sc, res)
}

// Read the configured mesh and build the scene and its intersection batch.
func buildScene(cfg *config.Config) (*scene.Scene, *tracer.Batch, error) {
	start := time.Now()
	tris, err := reader.ReadMesh(cfg.Client.Mesh)
	if err != nil {
		return nil, nil, err
	}

	sc, err := scene.NewScene(tris)
	if err != nil {
		return nil, nil, err
	}

	cam, err := scene.NewCamera(
		cfg.Client.Resolution[0], cfg.Client.Resolution[1],
		scene.DefaultEye, scene.DefaultLookAt, scene.DefaultUp,
		scene.DefaultDistance, cfg.Client.PixelSize,
	)
	if err != nil {
		return nil, nil, err
	}
	sc.SetCamera(cam)

	batch, err := sc.Batch()
	if err != nil {
		return nil, nil, err
	}
	logger.Noticef("built scene with %d triangles and %d rays in %s", batch.NumTriangles(), batch.NumRays(), time.Since(start))
	return sc, batch, nil
}

// Shade the results and write the configured output image.
func renderResult(cfg *config.Config, sc *scene.Scene, res *tracer.Result) error {
	r := renderer.New(renderer.DefaultOptions())
	img, err := r.Render(sc, res)
	if err != nil {
		return err
	}

	logger.Noticef("saving %s", cfg.Client.Output)
	if err = renderer.WritePNG(cfg.Client.Output, img); err != nil {
		return err
	}

	stats := r.Stats()
	logger.Noticef("finished shading calculations in %s (%d hits, %d misses)", stats.RenderTime, stats.Hits, stats.Misses)
	return nil
}
