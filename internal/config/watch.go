package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ModeSubscribe = "subscribe"
	ModePoll      = "poll"
)

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	AlertConfig
	Mode              string
	PollInterval      time.Duration
	FromBlock         uint64
	Checkpoint        string
	CheckpointEnabled bool
	DedupeSize        int
	MetricsAddr       string
}

// LoadWatch merges env file, config file, environment variables, and flags into WatchConfig.
func LoadWatch(src Source, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(src, flags, func(v *viper.Viper) {
		alertDefaults(v)
		v.SetDefault("mode", ModeSubscribe)
		v.SetDefault("poll-interval", 3*time.Second)
		v.SetDefault("checkpoint", "./data/checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("dedupe-size", 4096)
	})
	if err != nil {
		return WatchConfig{}, err
	}

	alert, err := readAlert(v)
	if err != nil {
		return WatchConfig{}, err
	}

	return WatchConfig{
		AlertConfig:       alert,
		Mode:              v.GetString("mode"),
		PollInterval:      v.GetDuration("poll-interval"),
		FromBlock:         v.GetUint64("from"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		DedupeSize:        v.GetInt("dedupe-size"),
		MetricsAddr:       v.GetString("metrics-addr"),
	}, nil
}

// Validate checks the watch settings.
func (c WatchConfig) Validate() error {
	if err := c.AlertConfig.Validate(); err != nil {
		return err
	}
	switch c.Mode {
	case ModeSubscribe, ModePoll:
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeSubscribe, ModePoll)
	}
	if c.Mode == ModePoll && c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}
