package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
)

const legacyJSON = `{
	"edge": {
		"ip": "127.0.0.1",
		"port": 5000,
		"bitstream": "sim:1ms"
	},
	"client": {
		"mesh": "~/meshes/bunny.obj",
		"output": "bunny.png"
	},
	"processing": {
		"mode": "heterogenous",
		"cpu": {"mode": "python"},
		"fpga": {"mode": "multi"},
		"heterogenous": {"fpga-load": 0.25}
	}
}`

func TestParseLegacyJSON(t *testing.T) {
	cfg, err := Parse([]byte(legacyJSON), JSON)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:5000", cfg.Address())
	require.Equal(t, "sim:1ms", cfg.Edge.Bitstream)
	require.Equal(t, ModeHeterogeneous, cfg.Processing.Mode)
	require.Equal(t, "python", cfg.Processing.CPU.Mode)
	require.Equal(t, "multi", cfg.Processing.FPGA.Mode)
	require.Equal(t, 0.25, cfg.FPGALoad())

	home, err := homedir.Dir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "meshes/bunny.obj"), cfg.Client.Mesh)

	// Unset values keep their defaults.
	require.Equal(t, []int{128, 128}, cfg.Client.Resolution)
	require.Equal(t, 30*time.Second, cfg.WaitPolicy().Timeout)
}

func TestParseYAML(t *testing.T) {
	payload := `
edge:
  port: 9000
  serve_forever: true
  io_timeout: 5s
client:
  resolution: [64, 32]
  psize: 0.5
processing:
  mode: fpga
  fpga:
    mode: single
    timeout: 2s
    poll_interval: 50us
    max_poll_interval: 5ms
`
	cfg, err := Parse([]byte(payload), YAML)
	require.NoError(t, err)

	require.True(t, cfg.Edge.ServeForever)
	require.Equal(t, Duration(5*time.Second), cfg.Edge.IOTimeout)
	require.Equal(t, []int{64, 32}, cfg.Client.Resolution)
	require.Equal(t, ModeFPGA, cfg.Processing.Mode)

	policy := cfg.WaitPolicy()
	require.Equal(t, 2*time.Second, policy.Timeout)
	require.Equal(t, 50*time.Microsecond, policy.InitialInterval)
	require.Equal(t, 5*time.Millisecond, policy.MaxInterval)
	require.Equal(t, 0.5, cfg.FPGALoad())
}

func TestParseTOML(t *testing.T) {
	payload := `
[edge]
ip = "localhost"
port = 7000

[processing]
mode = "heterogeneous"

[processing.cpu]
mode = "multicore"
workers = 4

[processing.heterogeneous]
fpga-load = 0.7
`
	cfg, err := Parse([]byte(payload), TOML)
	require.NoError(t, err)

	require.Equal(t, "localhost:7000", cfg.Address())
	require.Equal(t, 4, cfg.Processing.CPU.Workers)
	require.Equal(t, 0.7, cfg.FPGALoad())
}

func TestParseEmpty(t *testing.T) {
	for _, format := range []Format{JSON, YAML, TOML} {
		cfg, err := Parse(nil, format)
		require.NoError(t, err)
		require.Equal(t, ModeCPU, cfg.Processing.Mode)
		require.Equal(t, 0.5, cfg.FPGALoad())
	}
}

func TestValidate(t *testing.T) {
	specs := []string{
		`{"processing": {"mode": "gpu"}}`,
		`{"processing": {"cpu": {"mode": "vectorized"}}}`,
		`{"processing": {"fpga": {"mode": "quad"}}}`,
		`{"processing": {"heterogeneous": {"fpga-load": 1.5}}}`,
		`{"processing": {"heterogenous": {"fpga-load": -0.1}}}`,
		`{"processing": {"fpga": {"timeout": "-1s"}}}`,
		`{"edge": {"port": 70000}}`,
		`{"client": {"resolution": [10]}}`,
		`{"client": {"psize": 0}}`,
	}

	for index, payload := range specs {
		_, err := Parse([]byte(payload), JSON)
		require.ErrorIs(t, err, ErrInvalidConfig, "spec %d: %s", index, payload)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"edge": `), JSON)
	require.Error(t, err)

	_, err = Parse([]byte(`{"processing": {"fpga": {"timeout": "soon"}}}`), JSON)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edge.toml")
	require.NoError(t, os.WriteFile(path, []byte("[edge]\nport = 6000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 6000, cfg.Edge.Port)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatFromPath(t *testing.T) {
	require.Equal(t, JSON, FormatFromPath("settings/default.json"))
	require.Equal(t, YAML, FormatFromPath("edge.YML"))
	require.Equal(t, TOML, FormatFromPath("edge.toml"))
	require.Equal(t, JSON, FormatFromPath("settings"))
}
