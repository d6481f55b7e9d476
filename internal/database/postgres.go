package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radcr/radcr-backend/internal/config"
	"github.com/rs/zerolog"
)

// NewPostgresPool creates and validates a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MinConns = min(cfg.MinDBConns, cfg.MaxDBConns)
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	if cfg.SlowQuery > 0 {
		poolCfg.ConnConfig.Tracer = NewSlowQueryTracer(cfg.SlowQuery, log)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Int32("min_conns", poolCfg.MinConns).
		Dur("slow_query", cfg.SlowQuery).
		Msg("PostgreSQL connected")

	return pool, nil
}

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

// SlowQueryTracer logs statements whose execution exceeds a threshold.
type SlowQueryTracer struct {
	threshold time.Duration
	log       zerolog.Logger
}

func NewSlowQueryTracer(threshold time.Duration, log zerolog.Logger) *SlowQueryTracer {
	return &SlowQueryTracer{
		threshold: threshold,
		log:       log.With().Str("component", "postgres").Logger(),
	}
}

func (t *SlowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), sql: data.SQL})
}

func (t *SlowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := time.Since(start.at)
	if elapsed < t.threshold && data.Err == nil {
		return
	}

	ev := t.log.Warn()
	if data.Err != nil {
		ev = t.log.Debug().Err(data.Err)
	}
	ev.Dur("elapsed", elapsed).
		Str("sql", start.sql).
		Str("tag", data.CommandTag.String()).
		Msg("Query trace")
}
