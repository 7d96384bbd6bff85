package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pairAlert/internal/notify"
)

const EnvPrefix = "PAIRALERT"

// legacyEnv maps keys to the environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"rpc":              "RPC_URL",
	"pair":             "PAIR_ADDRESS",
	"telegram-token":   "TELE_BOT_TOKEN",
	"telegram-chat-id": "TELE_CHANNEL_ID",
	"telegram-api-url": "TELE_API_URL",
	"explorer-url":     "EXPLORER_URL",
	"threshold-token0": "THRESHOLD_USDT",
	"threshold-token1": "THRESHOLD_ASA",
}

// Source names where settings come from besides flags and the environment.
type Source struct {
	ConfigFile string
	EnvFile    string
}

// AlertConfig holds the settings shared by every command that handles events.
type AlertConfig struct {
	RPCURL         string
	Pair           string
	TelegramAPIURL string
	TelegramToken  string
	TelegramChatID string
	ExplorerURL    string
	Threshold0     decimal.Decimal
	Threshold1     decimal.Decimal
	Token0Label    string
	Token1Label    string
	Decimals       uint8
	BatchSize      uint64
	MaxRetries     int
	RetryBackoff   time.Duration
	LookupTimeout  time.Duration
	SendTimeout    time.Duration
	Journal        string
	PGDSN          string
	DryRun         bool
	LogLevel       string
}

func alertDefaults(v *viper.Viper) {
	v.SetDefault("telegram-api-url", notify.DefaultTelegramAPIURL)
	v.SetDefault("threshold-token0", "0")
	v.SetDefault("threshold-token1", "0")
	v.SetDefault("token0-label", "USDT")
	v.SetDefault("token1-label", "ASA")
	v.SetDefault("decimals", 18)
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("lookup-timeout", 15*time.Second)
	v.SetDefault("send-timeout", 10*time.Second)
	v.SetDefault("log-level", "info")
}

func readAlert(v *viper.Viper) (AlertConfig, error) {
	threshold0, err := parseThreshold(v, "threshold-token0")
	if err != nil {
		return AlertConfig{}, err
	}
	threshold1, err := parseThreshold(v, "threshold-token1")
	if err != nil {
		return AlertConfig{}, err
	}
	decimals := v.GetUint("decimals")
	if decimals > 255 {
		return AlertConfig{}, fmt.Errorf("decimals out of range: %d", decimals)
	}

	return AlertConfig{
		RPCURL:         v.GetString("rpc"),
		Pair:           strings.TrimSpace(v.GetString("pair")),
		TelegramAPIURL: v.GetString("telegram-api-url"),
		TelegramToken:  v.GetString("telegram-token"),
		TelegramChatID: v.GetString("telegram-chat-id"),
		ExplorerURL:    v.GetString("explorer-url"),
		Threshold0:     threshold0,
		Threshold1:     threshold1,
		Token0Label:    v.GetString("token0-label"),
		Token1Label:    v.GetString("token1-label"),
		Decimals:       uint8(decimals),
		BatchSize:      v.GetUint64("batch-size"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LookupTimeout:  v.GetDuration("lookup-timeout"),
		SendTimeout:    v.GetDuration("send-timeout"),
		Journal:        v.GetString("journal"),
		PGDSN:          v.GetString("pg-dsn"),
		DryRun:         v.GetBool("dry-run"),
		LogLevel:       v.GetString("log-level"),
	}, nil
}

// Validate checks the settings needed to handle events.
func (c AlertConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Pair == "" {
		return fmt.Errorf("pair address is required")
	}
	if !c.DryRun {
		if c.TelegramToken == "" {
			return fmt.Errorf("telegram token is required unless --dry-run is set")
		}
		if c.TelegramChatID == "" {
			return fmt.Errorf("telegram chat id is required unless --dry-run is set")
		}
	}
	if c.Threshold0.IsNegative() || c.Threshold1.IsNegative() {
		return fmt.Errorf("thresholds must not be negative")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	return nil
}

func parseThreshold(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}

// newViper merges the env file, config file, environment, and flags.
func newViper(src Source, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	if err := loadEnvFile(src.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envName(key), legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if src.ConfigFile != "" {
		v.SetConfigFile(src.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// envName is the prefixed variable AutomaticEnv would use for key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// loadEnvFile loads variables that are not already set. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
