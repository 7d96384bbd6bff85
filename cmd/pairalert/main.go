package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pairAlert/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "pairalert",
		Short:        "DEX pair swap and liquidity alerts",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the pair and send alerts until interrupted",
		RunE:  runWatch,
	}

	addAlertFlags(watchCmd)
	watchCmd.Flags().String("mode", config.ModeSubscribe, "log source (subscribe, poll)")
	watchCmd.Flags().Duration("poll-interval", 3*time.Second, "head polling interval in poll mode")
	watchCmd.Flags().Uint64("from", 0, "first block in poll mode, 0 means the current head")
	watchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (poll mode)")
	watchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing (poll mode)")
	watchCmd.Flags().Int("dedupe-size", 4096, "number of recent logs remembered for duplicate suppression")
	watchCmd.Flags().String("metrics-addr", "", "listen address for /metrics and /healthz, empty disables")

	root.AddCommand(watchCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Replay a historical block range through the alert handlers",
		RunE:  runBackfill,
	}

	addAlertFlags(backfillCmd)
	backfillCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	backfillCmd.Flags().Uint64("to", 0, "end block (inclusive)")

	root.AddCommand(backfillCmd)

	decodeTxCmd := &cobra.Command{
		Use:   "decode-tx",
		Short: "Decode a transaction's router or zap calldata",
		RunE:  runDecodeTx,
	}

	decodeTxCmd.Flags().String("rpc", "", "RPC URL")
	decodeTxCmd.Flags().String("tx", "", "transaction hash")
	decodeTxCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeTxCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addAlertFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL (ws:// required for subscribe mode)")
	cmd.Flags().String("pair", "", "pair contract address")
	cmd.Flags().String("telegram-api-url", "https://api.telegram.org", "Telegram Bot API base URL")
	cmd.Flags().String("telegram-token", "", "Telegram bot token")
	cmd.Flags().String("telegram-chat-id", "", "Telegram chat or channel id")
	cmd.Flags().String("explorer-url", "", "block explorer base URL for tx links")
	cmd.Flags().String("threshold-token0", "0", "minimum token0 amount for a swap alert")
	cmd.Flags().String("threshold-token1", "0", "minimum token1 amount for a swap alert")
	cmd.Flags().String("token0-label", "USDT", "token0 name in messages")
	cmd.Flags().String("token1-label", "ASA", "token1 name in messages")
	cmd.Flags().Uint("decimals", 18, "token decimals")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per eth_getLogs call")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts for RPC reads")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Duration("lookup-timeout", 15*time.Second, "transaction lookup timeout")
	cmd.Flags().Duration("send-timeout", 10*time.Second, "notification call timeout")
	cmd.Flags().String("journal", "", "alert journal JSONL path, empty disables")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the alert journal, empty disables")
	cmd.Flags().Bool("dry-run", false, "log alerts instead of sending them")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func configSource(cmd *cobra.Command) config.Source {
	cfgFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Source{ConfigFile: cfgFile, EnvFile: envFile}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
