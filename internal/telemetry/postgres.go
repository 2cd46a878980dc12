package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink persists telemetry records in PostgreSQL for offline diagnosis.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresSink{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS telemetry_records (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			severity TEXT NOT NULL DEFAULT '',
			props JSONB,
			started_at TIMESTAMPTZ,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			success BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_telemetry_records_kind_created ON telemetry_records (kind, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, rec Record) error {
	var props []byte
	if len(rec.Props) > 0 {
		encoded, err := json.Marshal(rec.Props)
		if err != nil {
			return fmt.Errorf("encode props: %w", err)
		}
		props = encoded
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO telemetry_records (id, kind, name, target, severity, props, started_at, duration_ms, success, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID,
		string(rec.Kind),
		rec.Name,
		rec.Target,
		string(rec.Severity),
		props,
		nullableTime(rec.Start),
		rec.DurationMS,
		rec.Success,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write telemetry record: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
