// Package postgres provides the Postgres-backed persisted-record store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// StoreConfig controls the Postgres connection pool used for record rows.
type StoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes transformed client records into Postgres. Idempotency is
// enforced by the table's unique constraint on
// (request_id, partner_id, client_id, business_date) together with
// ON CONFLICT DO NOTHING: a replayed write affects zero rows.
type Store struct {
	pool  execCloser
	table string
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("records.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "client_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{
		pool:  pool,
		table: table,
	}, nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewStoreWithPool(pool execCloser, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "client_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// UpsertIfAbsent inserts the record unless its business key already exists.
// Assumes a schema like:
//
//	CREATE TABLE client_records (
//	    request_id      TEXT NOT NULL,
//	    partner_id      TEXT NOT NULL,
//	    client_id       TEXT NOT NULL,
//	    business_date   DATE NOT NULL,
//	    account_balance DOUBLE PRECISION NOT NULL,
//	    processed_at    TIMESTAMPTZ NOT NULL,
//	    created_at      TIMESTAMPTZ DEFAULT NOW(),
//	    PRIMARY KEY (request_id, partner_id, client_id, business_date)
//	);
func (s *Store) UpsertIfAbsent(ctx context.Context, key ingest.RecordKey, record ingest.ClientRecord) (bool, error) {
	if s == nil || s.pool == nil {
		return false, fmt.Errorf("record store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	request_id,
	partner_id,
	client_id,
	business_date,
	account_balance,
	processed_at
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT DO NOTHING`, s.table)

	tag, err := s.pool.Exec(ctx, query,
		key.RequestID,
		key.PartnerID,
		key.ClientID,
		key.BusinessDate,
		record.AccountBalance,
		record.ProcessedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert client record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
