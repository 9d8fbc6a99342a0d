package main

import (
	"fmt"
	"os"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/cmd"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/config"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	processingFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "mode, m",
			Usage: "processing mode (cpu, fpga or heterogeneous)",
		},
		cli.StringFlag{
			Name:  "cpu-mode",
			Usage: "software tracer mode (sequential, multicore or reference)",
		},
		cli.StringFlag{
			Name:  "fpga-mode",
			Usage: "hardware tracer mode (single or multi)",
		},
		cli.Float64Flag{
			Name:  "fpga-load",
			Usage: "fraction of rays assigned to the hardware tracer in heterogeneous mode",
		},
		cli.StringFlag{
			Name:  "bitstream",
			Usage: "accelerator overlay bitstream; use sim or sim:<latency> for the simulator",
		},
	}

	clientFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "mesh",
			Usage: "wavefront obj mesh to trace",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "image filename for the rendered frame",
		},
		cli.IntFlag{
			Name:  "width",
			Value: 128,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 128,
			Usage: "frame height",
		},
		cli.Float64Flag{
			Name:  "psize",
			Usage: "camera pixel size",
		},
	}

	app := cli.NewApp()
	app.Name = "raytrace-offload"
	app.Usage = "offload ray-triangle intersection tests to cpu and fpga edge nodes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning or error)",
		},
		cli.StringFlag{
			Name:  "config, c",
			Value: config.DefaultPath,
			Usage: "settings file (json, yaml or toml)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "edge",
			Usage: "run an edge node",
			Description: `
Listen for scenes sent by clients, compute the closest intersection of every
ray using the configured processing mode and reply with the results.

By default the node exits after serving a single session.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "port, p",
					Usage: "listen port",
				},
				cli.BoolFlag{
					Name:  "forever",
					Usage: "keep serving sessions until interrupted",
				},
			}, processingFlags...),
			Action: cmd.RunEdge,
		},
		{
			Name:  "client",
			Usage: "offload a mesh to an edge node and render the results",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "edge, e",
					Usage: "edge node address (host:port)",
				},
			}, clientFlags...),
			Action: cmd.RunClient,
		},
		{
			Name:   "trace",
			Usage:  "trace a mesh locally and render the results",
			Flags:  append(append([]cli.Flag{}, processingFlags...), clientFlags...),
			Action: cmd.RunTrace,
		},
		{
			Name:  "probe",
			Usage: "load the accelerator overlay and check its units",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "bitstream",
					Usage: "accelerator overlay bitstream; use sim or sim:<latency> for the simulator",
				},
				cli.IntFlag{
					Name:  "units",
					Value: 2,
					Usage: "number of intersection units in the overlay",
				},
				cli.IntFlag{
					Name:  "rays",
					Value: 256,
					Usage: "number of probe rays",
				},
				cli.IntFlag{
					Name:  "triangles",
					Value: 64,
					Usage: "number of probe triangles",
				},
			},
			Action: cmd.ProbeDevices,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
