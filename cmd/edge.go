package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/edge"
	"github.com/urfave/cli"
)

// Run an edge node.
func RunEdge(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet("port") {
		cfg.Edge.Port = ctx.Int("port")
	}
	if ctx.Bool("forever") {
		cfg.Edge.ServeForever = true
	}
	if err = applyProcessingFlags(ctx, cfg); err != nil {
		return err
	}

	node, err := edge.NewNode(cfg)
	if err != nil {
		return err
	}
	defer node.Close()
	node.OnSession = displaySessionStats

	if err = node.Listen(); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = node.Serve(sigCtx)
	if errors.Is(err, context.Canceled) {
		logger.Notice("shutting down")
		return nil
	}
	return err
}
