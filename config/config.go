package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/cpu"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer/fpga"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Location of the configuration file when none is specified.
const DefaultPath = "settings/default.json"

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Execution modes.
const (
	ModeCPU           = "cpu"
	ModeFPGA          = "fpga"
	ModeHeterogeneous = "heterogeneous"
)

// A Duration is a time.Duration that is read from strings such as "30s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	val, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(val)
	return nil
}

type Edge struct {
	IP        string `json:"ip" yaml:"ip" toml:"ip"`
	Port      int    `json:"port" yaml:"port" toml:"port"`
	Bitstream string `json:"bitstream" yaml:"bitstream" toml:"bitstream"`

	// Keep accepting sessions after the first one.
	ServeForever bool `json:"serve_forever" yaml:"serve_forever" toml:"serve_forever"`

	// Per-message socket deadline; 0 disables it.
	IOTimeout Duration `json:"io_timeout" yaml:"io_timeout" toml:"io_timeout"`

	// Largest accepted scene payload in bytes; 0 disables the check.
	MaxMessageSize uint32 `json:"max_message_size" yaml:"max_message_size" toml:"max_message_size"`
}

type Client struct {
	Mesh       string  `json:"mesh" yaml:"mesh" toml:"mesh"`
	Output     string  `json:"output" yaml:"output" toml:"output"`
	Resolution []int   `json:"resolution" yaml:"resolution" toml:"resolution"`
	PixelSize  float64 `json:"psize" yaml:"psize" toml:"psize"`
}

type CPU struct {
	Mode    string `json:"mode" yaml:"mode" toml:"mode"`
	Workers int    `json:"workers" yaml:"workers" toml:"workers"`
}

type FPGA struct {
	Mode            string   `json:"mode" yaml:"mode" toml:"mode"`
	Timeout         Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	PollInterval    Duration `json:"poll_interval" yaml:"poll_interval" toml:"poll_interval"`
	MaxPollInterval Duration `json:"max_poll_interval" yaml:"max_poll_interval" toml:"max_poll_interval"`
}

type Heterogeneous struct {
	FPGALoad float64 `json:"fpga-load" yaml:"fpga-load" toml:"fpga-load"`
}

type Processing struct {
	Mode          string         `json:"mode" yaml:"mode" toml:"mode"`
	CPU           CPU            `json:"cpu" yaml:"cpu" toml:"cpu"`
	FPGA          FPGA           `json:"fpga" yaml:"fpga" toml:"fpga"`
	Heterogeneous *Heterogeneous `json:"heterogeneous" yaml:"heterogeneous" toml:"heterogeneous"`

	// Misspelled section name accepted for compatibility with older files.
	LegacyHeterogeneous *Heterogeneous `json:"heterogenous" yaml:"heterogenous" toml:"heterogenous"`
}

// Config holds the settings shared by the edge node and the client.
type Config struct {
	Edge       Edge       `json:"edge" yaml:"edge" toml:"edge"`
	Client     Client     `json:"client" yaml:"client" toml:"client"`
	Processing Processing `json:"processing" yaml:"processing" toml:"processing"`
}

// Get the default configuration.
func Default() *Config {
	return &Config{
		Edge: Edge{
			IP:        "0.0.0.0",
			Port:      8080,
			Bitstream: "intersect_fpga_x2.bit",
		},
		Client: Client{
			Mesh:       "meshes/bunny.obj",
			Output:     "out.png",
			Resolution: []int{128, 128},
			PixelSize:  0.2,
		},
		Processing: Processing{
			Mode: ModeCPU,
			CPU:  CPU{Mode: cpu.Sequential.String()},
			FPGA: FPGA{
				Mode:            fpga.Single.String(),
				Timeout:         Duration(30 * time.Second),
				PollInterval:    Duration(10 * time.Microsecond),
				MaxPollInterval: Duration(time.Millisecond),
			},
			Heterogeneous: &Heterogeneous{FPGALoad: 0.5},
		},
	}
}

// Supported configuration file formats.
type Format uint8

const (
	JSON Format = iota
	YAML
	TOML
)

// Detect the format of a configuration file from its extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".toml":
		return TOML
	}
	return JSON
}

// Load the configuration file at path on top of the defaults.
func Load(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("config: could not parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse configuration data on top of the defaults and validate the result.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	cfg.Processing.Heterogeneous = nil

	var err error
	switch format {
	case TOML:
		err = toml.Unmarshal(data, cfg)
	case YAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		if len(bytes.TrimSpace(data)) != 0 {
			err = json.Unmarshal(data, cfg)
		}
	}
	if err != nil {
		return nil, err
	}

	if err = cfg.normalize(); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	p := &c.Processing
	if p.Heterogeneous == nil {
		p.Heterogeneous = p.LegacyHeterogeneous
	}
	if p.Heterogeneous == nil {
		p.Heterogeneous = Default().Processing.Heterogeneous
	}
	p.LegacyHeterogeneous = nil

	p.Mode = strings.ToLower(p.Mode)
	if p.Mode == "heterogenous" {
		p.Mode = ModeHeterogeneous
	}

	var err error
	for _, path := range []*string{&c.Client.Mesh, &c.Client.Output} {
		if *path, err = homedir.Expand(*path); err != nil {
			return err
		}
	}
	if !strings.HasPrefix(c.Edge.Bitstream, "sim") {
		if c.Edge.Bitstream, err = homedir.Expand(c.Edge.Bitstream); err != nil {
			return err
		}
	}
	return nil
}

// Check the configuration for unsupported values.
func (c *Config) Validate() error {
	p := c.Processing
	switch p.Mode {
	case ModeCPU, ModeFPGA, ModeHeterogeneous:
	default:
		return fmt.Errorf("%w: unknown processing mode %q", ErrInvalidConfig, p.Mode)
	}
	if _, err := cpu.ParseMode(p.CPU.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := fpga.ParseMode(p.FPGA.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if p.Heterogeneous != nil {
		if load := p.Heterogeneous.FPGALoad; math.IsNaN(load) || load < 0 || load > 1 {
			return fmt.Errorf("%w: fpga-load must be in [0, 1]; got %v", ErrInvalidConfig, load)
		}
	}
	if p.FPGA.Timeout < 0 || p.FPGA.PollInterval < 0 || p.FPGA.MaxPollInterval < 0 {
		return fmt.Errorf("%w: negative fpga timing settings", ErrInvalidConfig)
	}

	if c.Edge.Port < 0 || c.Edge.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Edge.Port)
	}
	if c.Edge.IOTimeout < 0 {
		return fmt.Errorf("%w: negative io_timeout", ErrInvalidConfig)
	}

	if len(c.Client.Resolution) != 2 || c.Client.Resolution[0] <= 0 || c.Client.Resolution[1] <= 0 {
		return fmt.Errorf("%w: resolution must be two positive integers; got %v", ErrInvalidConfig, c.Client.Resolution)
	}
	if c.Client.PixelSize <= 0 {
		return fmt.Errorf("%w: psize must be positive; got %v", ErrInvalidConfig, c.Client.PixelSize)
	}
	return nil
}

// Get the edge node address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Edge.IP, strconv.Itoa(c.Edge.Port))
}

// Get the hardware polling policy.
func (c *Config) WaitPolicy() tracer.WaitPolicy {
	return tracer.WaitPolicy{
		InitialInterval: time.Duration(c.Processing.FPGA.PollInterval),
		MaxInterval:     time.Duration(c.Processing.FPGA.MaxPollInterval),
		Timeout:         time.Duration(c.Processing.FPGA.Timeout),
	}
}

// Get the heterogeneous hardware load fraction.
func (c *Config) FPGALoad() float64 {
	if c.Processing.Heterogeneous == nil {
		return Default().Processing.Heterogeneous.FPGALoad
	}
	return c.Processing.Heterogeneous.FPGALoad
}
