package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeTxConfig holds configuration for the decode-tx command.
type DecodeTxConfig struct {
	RPCURL   string
	TxHash   string
	LogLevel string
}

// LoadDecodeTx merges env file, config file, environment variables, and flags into DecodeTxConfig.
func LoadDecodeTx(src Source, flags *pflag.FlagSet) (DecodeTxConfig, error) {
	v, err := newViper(src, flags, func(v *viper.Viper) {
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return DecodeTxConfig{}, err
	}

	cfg := DecodeTxConfig{
		RPCURL:   v.GetString("rpc"),
		TxHash:   v.GetString("tx"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.RPCURL == "" {
		return DecodeTxConfig{}, fmt.Errorf("rpc url is required")
	}
	if cfg.TxHash == "" {
		return DecodeTxConfig{}, fmt.Errorf("--tx is required")
	}
	return cfg, nil
}
