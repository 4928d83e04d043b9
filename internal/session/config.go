// Package session is the top-level coordinator (C10): it owns the clock,
// mixer, MIDI sink, dispatcher and shared environment, routes surface-
// language actions to them, and applies the hot-reload filtering policy.
// Grounded on the teacher's parser.LoadTrack (os.ReadFile + yaml.Unmarshal +
// default-filling) for startup config, generalized from a BTML backing
// track file to cadence.yaml's session settings.
package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cadence-lang/cadence/internal/midisink"
)

// Config is the contents of cadence.yaml, the startup session configuration.
type Config struct {
	Tempo          float64 `yaml:"tempo"`
	ChannelMapping string  `yaml:"channel_mapping"` // "per_track" or "fixed"
	FixedChannel   int     `yaml:"fixed_channel"`
	OutputMode     string  `yaml:"output_mode"` // "synth", "midi", or "both"
	MidiPort       string  `yaml:"midi_port"`   // substring match, empty = first available
	StartupFile    string  `yaml:"startup_file"`
}

// DefaultConfig mirrors what an absent cadence.yaml should behave like.
func DefaultConfig() Config {
	return Config{
		Tempo:          120,
		ChannelMapping: "per_track",
		FixedChannel:   0,
		OutputMode:     "both",
		MidiPort:       "",
		StartupFile:    "session.cdc",
	}
}

// LoadConfig reads and parses cadence.yaml. A missing file is not an error;
// DefaultConfig is returned instead.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("session: invalid config %s: %w", path, err)
	}
	if cfg.Tempo <= 0 {
		cfg.Tempo = 120
	}
	if cfg.ChannelMapping == "" {
		cfg.ChannelMapping = "per_track"
	}
	if cfg.OutputMode == "" {
		cfg.OutputMode = "both"
	}
	if cfg.StartupFile == "" {
		cfg.StartupFile = "session.cdc"
	}
	return cfg, nil
}

// WantsSynth reports whether the configured output mode plays through the
// built-in synth.
func (c Config) WantsSynth() bool { return c.OutputMode == "synth" || c.OutputMode == "both" }

// WantsMidi reports whether the configured output mode plays through MIDI.
func (c Config) WantsMidi() bool { return c.OutputMode == "midi" || c.OutputMode == "both" }

// ChannelPolicy translates the config's string policy into midisink's enum.
func (c Config) ChannelPolicy() midisink.ChannelPolicy {
	if c.ChannelMapping == "fixed" {
		return midisink.Fixed
	}
	return midisink.PerTrack
}
