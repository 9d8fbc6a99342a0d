package edge

import (
	"fmt"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/config"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/cpu"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/fpga"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/fpga/device"
)

// Build the intersection engine for the configured processing mode. The
// accelerator overlay is only loaded by modes that use it.
func NewEngine(cfg *config.Config) (tracer.Engine, error) {
	policy := cfg.WaitPolicy()

	switch cfg.Processing.Mode {
	case config.ModeCPU:
		sw, err := newSoftwareTracer(cfg)
		if err != nil {
			return nil, err
		}
		return tracer.NewSingleEngine(sw, policy), nil
	case config.ModeFPGA:
		hw, err := newHardwareTracer(cfg)
		if err != nil {
			return nil, err
		}
		return tracer.NewSingleEngine(hw, policy), nil
	case config.ModeHeterogeneous:
		sw, err := newSoftwareTracer(cfg)
		if err != nil {
			return nil, err
		}
		hw, err := newHardwareTracer(cfg)
		if err != nil {
			sw.Close()
			return nil, err
		}
		sch, err := tracer.NewHeterogeneousScheduler(hw, sw, cfg.FPGALoad(), policy)
		if err != nil {
			sw.Close()
			hw.Close()
			return nil, err
		}
		return sch, nil
	}
	return nil, fmt.Errorf("%w: unknown processing mode %q", config.ErrInvalidConfig, cfg.Processing.Mode)
}

func newSoftwareTracer(cfg *config.Config) (*cpu.Tracer, error) {
	mode, err := cpu.ParseMode(cfg.Processing.CPU.Mode)
	if err != nil {
		return nil, err
	}
	return cpu.NewTracer("cpu", mode, cfg.Processing.CPU.Workers), nil
}

func newHardwareTracer(cfg *config.Config) (*fpga.Tracer, error) {
	mode, err := fpga.ParseMode(cfg.Processing.FPGA.Mode)
	if err != nil {
		return nil, err
	}

	overlay, err := device.Open(cfg.Edge.Bitstream, mode.Units())
	if err != nil {
		return nil, err
	}

	tr, err := fpga.NewTracer("fpga", overlay, mode)
	if err != nil {
		overlay.Close()
		return nil, err
	}
	return tr, nil
}
