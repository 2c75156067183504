package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Read receiver configuration from a file.
 *
 * Description:	A small YAML document describes one wideband stream:
 *		how many channels to split it into, where it sits in
 *		the spectrum, and where events should go.  Command
 *		line flags (cmd/malamute) override anything set here.
 *
 *		Validation mirrors the core init rules so a bad file
 *		fails with a readable message before any DSP state is
 *		allocated.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const DEFAULT_BLOCK_SIZE = 16384
const DEFAULT_EVENT_PORT = 8433

type ReceiverConfig struct {
	NumChannels int     `yaml:"num_channels"`
	CenterHz    float64 `yaml:"center_hz"`
	InputRate   int     `yaml:"input_rate"`

	/* Optional decoder sample rate.  0 or the channel rate itself
	   means the resamplers run in passthrough. */
	TargetRate int `yaml:"target_rate"`

	/* Complex samples handed to the core per call. */
	BlockSize int `yaml:"block_size"`

	/* Event sinks.  All optional. */
	EventLogDir string `yaml:"event_log_dir"`
	EventPort   int    `yaml:"event_port"`
	ServiceName string `yaml:"service_name"`
}

func DefaultConfig() ReceiverConfig {
	return ReceiverConfig{
		NumChannels: 8,
		CenterHz:    868.3e6,
		InputRate:   2_500_000,
		BlockSize:   DEFAULT_BLOCK_SIZE,
	}
}

/*------------------------------------------------------------------
 *
 * Name:        ConfigLoad
 *
 * Purpose:     Parse a YAML configuration file over the defaults.
 *
 *----------------------------------------------------------------*/

func ConfigLoad(path string) (ReceiverConfig, error) {

	var cfg = DefaultConfig()

	var raw, readErr = os.ReadFile(path)
	if readErr != nil {
		return cfg, fmt.Errorf("config: %w", readErr)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *ReceiverConfig) Validate() error {

	if !is_power_of_two(c.NumChannels) || c.NumChannels < MIN_CHANNELS || c.NumChannels > MAX_CHANNELS {
		return invalid_argf("num_channels %d must be a power of two in [%d,%d]", c.NumChannels, MIN_CHANNELS, MAX_CHANNELS)
	}
	if c.InputRate <= 0 || c.InputRate > math.MaxInt32 {
		return invalid_argf("input_rate %d out of range", c.InputRate)
	}
	if c.TargetRate < 0 || c.TargetRate > math.MaxInt32 {
		return invalid_argf("target_rate %d out of range", c.TargetRate)
	}
	if c.CenterHz < 0 {
		return invalid_argf("center_hz %f must not be negative", c.CenterHz)
	}
	if c.BlockSize <= 0 {
		return invalid_argf("block_size %d must be positive", c.BlockSize)
	}
	if c.BlockSize%(c.NumChannels/2) != 0 {
		/* Not required by the core, but a block that is a multiple of
		   the decimation keeps replay output counts predictable. */
		return invalid_argf("block_size %d should be a multiple of %d", c.BlockSize, c.NumChannels/2)
	}
	if c.EventPort < 0 || c.EventPort > 65535 {
		return invalid_argf("event_port %d out of range", c.EventPort)
	}

	return nil
}
