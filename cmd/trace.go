package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/edge"
	"github.com/urfave/cli"
)

// Trace a mesh locally with the configured engine and render the results.
func RunTrace(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err = applyProcessingFlags(ctx, cfg); err != nil {
		return err
	}
	if err = applyClientFlags(ctx, cfg); err != nil {
		return err
	}

	sc, batch, err := buildScene(cfg)
	if err != nil {
		return err
	}

	engine, err := edge.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := engine.Trace(sigCtx, batch)
	if err != nil {
		return err
	}
	displayTraceStats(engine.Stats())

	return renderResult(cfg, sc, res)
}
