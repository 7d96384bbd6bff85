package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// BackfillConfig holds configuration for the backfill command.
type BackfillConfig struct {
	AlertConfig
	FromBlock uint64
	ToBlock   uint64
}

// LoadBackfill merges env file, config file, environment variables, and flags into BackfillConfig.
func LoadBackfill(src Source, flags *pflag.FlagSet) (BackfillConfig, error) {
	v, err := newViper(src, flags, alertDefaults)
	if err != nil {
		return BackfillConfig{}, err
	}

	alert, err := readAlert(v)
	if err != nil {
		return BackfillConfig{}, err
	}

	return BackfillConfig{
		AlertConfig: alert,
		FromBlock:   v.GetUint64("from"),
		ToBlock:     v.GetUint64("to"),
	}, nil
}

// Validate checks the backfill range and alert settings.
func (c BackfillConfig) Validate() error {
	if err := c.AlertConfig.Validate(); err != nil {
		return err
	}
	if c.FromBlock == 0 || c.ToBlock == 0 {
		return fmt.Errorf("--from and --to are required")
	}
	if c.ToBlock < c.FromBlock {
		return fmt.Errorf("to block must be >= from block")
	}
	return nil
}
