package malamute

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write_config(t *testing.T, body string) string {
	t.Helper()

	var path = filepath.Join(t.TempDir(), "malamute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestConfigLoad(t *testing.T) {
	var path = write_config(t, `
num_channels: 4
center_hz: 433.92e6
input_rate: 2000000
target_rate: 250000
block_size: 8192
event_port: 9001
service_name: shed-receiver
`)

	var cfg, err = ConfigLoad(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.NumChannels)
	assert.InDelta(t, 433.92e6, cfg.CenterHz, 1)
	assert.Equal(t, 2_000_000, cfg.InputRate)
	assert.Equal(t, 250_000, cfg.TargetRate)
	assert.Equal(t, 8192, cfg.BlockSize)
	assert.Equal(t, 9001, cfg.EventPort)
	assert.Equal(t, "shed-receiver", cfg.ServiceName)
}

func TestConfigLoadKeepsDefaults(t *testing.T) {
	var path = write_config(t, `
input_rate: 1024000
`)

	var cfg, err = ConfigLoad(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.NumChannels, "default channel count")
	assert.Equal(t, 1_024_000, cfg.InputRate)
	assert.Equal(t, DEFAULT_BLOCK_SIZE, cfg.BlockSize)
}

func TestConfigLoadMissingFile(t *testing.T) {
	var _, err = ConfigLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigLoadBadYAML(t *testing.T) {
	var path = write_config(t, "num_channels: [what")

	var _, err = ConfigLoad(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReceiverConfig)
	}{
		{"channels not power of two", func(c *ReceiverConfig) { c.NumChannels = 6 }},
		{"too many channels", func(c *ReceiverConfig) { c.NumChannels = 64 }},
		{"zero input rate", func(c *ReceiverConfig) { c.InputRate = 0 }},
		{"negative target rate", func(c *ReceiverConfig) { c.TargetRate = -1 }},
		{"negative center", func(c *ReceiverConfig) { c.CenterHz = -1 }},
		{"zero block size", func(c *ReceiverConfig) { c.BlockSize = 0 }},
		{"block size not a multiple of the decimation", func(c *ReceiverConfig) { c.BlockSize = 4097 }},
		{"port out of range", func(c *ReceiverConfig) { c.EventPort = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg = DefaultConfig()
			tt.mutate(&cfg)

			assert.ErrorIs(t, cfg.Validate(), ErrInvalidArgument)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
