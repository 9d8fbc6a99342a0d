package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/config"
	"github.com/urfave/cli"
)

// Load the configuration selected by the global --config flag. A missing
// default configuration file falls back to the built-in defaults.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.GlobalString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !ctx.GlobalIsSet("config") {
			logger.Noticef("%s not found; using default settings", path)
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Apply command line overrides for the processing settings.
func applyProcessingFlags(ctx *cli.Context, cfg *config.Config) error {
	if ctx.IsSet("mode") {
		cfg.Processing.Mode = strings.ToLower(ctx.String("mode"))
	}
	if ctx.IsSet("cpu-mode") {
		cfg.Processing.CPU.Mode = ctx.String("cpu-mode")
	}
	if ctx.IsSet("fpga-mode") {
		cfg.Processing.FPGA.Mode = ctx.String("fpga-mode")
	}
	if ctx.IsSet("fpga-load") {
		cfg.Processing.Heterogeneous.FPGALoad = ctx.Float64("fpga-load")
	}
	if ctx.IsSet("bitstream") {
		cfg.Edge.Bitstream = ctx.String("bitstream")
	}
	return cfg.Validate()
}

// Apply command line overrides for the client settings.
func applyClientFlags(ctx *cli.Context, cfg *config.Config) error {
	if ctx.IsSet("mesh") {
		cfg.Client.Mesh = ctx.String("mesh")
	}
	if ctx.IsSet("out") {
		cfg.Client.Output = ctx.String("out")
	}
	if ctx.IsSet("width") || ctx.IsSet("height") {
		cfg.Client.Resolution = []int{ctx.Int("width"), ctx.Int("height")}
	}
	if ctx.IsSet("psize") {
		cfg.Client.PixelSize = ctx.Float64("psize")
	}
	return cfg.Validate()
}
