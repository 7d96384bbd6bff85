package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pairAlert/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	chain_id     BIGINT      NOT NULL,
	pair_address TEXT        NOT NULL,
	block_number BIGINT      NOT NULL,
	tx_hash      TEXT        NOT NULL,
	log_index    BIGINT      NOT NULL,
	event_name   TEXT        NOT NULL,
	message      TEXT        NOT NULL,
	dispatched   BOOLEAN     NOT NULL,
	send_error   TEXT        NOT NULL DEFAULT '',
	skip_reason  TEXT        NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain_id, tx_hash, log_index)
)`

// Replays of the same log keep the original created_at, and a send that
// succeeded once stays dispatched.
const upsertAlert = `
INSERT INTO alerts (
	chain_id, pair_address, block_number, tx_hash, log_index, event_name,
	message, dispatched, send_error, skip_reason, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (chain_id, tx_hash, log_index)
DO UPDATE SET
	message = EXCLUDED.message,
	dispatched = alerts.dispatched OR EXCLUDED.dispatched,
	send_error = EXCLUDED.send_error,
	skip_reason = EXCLUDED.skip_reason,
	updated_at = now()
`

// Store provides Postgres persistence for the alert journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the alerts table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create alerts table: %w", err)
	}
	return nil
}

// PutAlert inserts or updates the alert for one pair log.
func (s *Store) PutAlert(ctx context.Context, record model.AlertRecord) error {
	if _, err := s.pool.Exec(ctx, upsertAlert, upsertArgs(record)...); err != nil {
		return fmt.Errorf("upsert alert %s:%d: %w", record.TxHash, record.LogIndex, err)
	}
	return nil
}

// upsertArgs returns the upsertAlert parameters in placeholder order.
func upsertArgs(record model.AlertRecord) []any {
	return []any{
		int64(record.ChainID),
		record.Pair,
		int64(record.BlockNumber),
		record.TxHash,
		int64(record.LogIndex),
		record.EventName,
		record.Message,
		record.Dispatched,
		record.SendError,
		record.SkipReason,
		createdAt(record.CreatedAt),
	}
}

func createdAt(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}
