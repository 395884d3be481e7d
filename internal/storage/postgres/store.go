package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpYield/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pool_yields (
	pool              TEXT PRIMARY KEY,
	chain             TEXT NOT NULL,
	project           TEXT NOT NULL,
	symbol            TEXT NOT NULL,
	tvl_usd           DOUBLE PRECISION NOT NULL,
	apy_base          DOUBLE PRECISION NOT NULL,
	apy_reward        DOUBLE PRECISION NOT NULL,
	underlying_tokens TEXT[] NOT NULL,
	reward_tokens     TEXT[] NOT NULL,
	url               TEXT NOT NULL,
	computed_at       TIMESTAMPTZ NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS yield_state (
	name         TEXT PRIMARY KEY,
	last_run_ts  BIGINT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for pool yields.
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

// EnsureSchema creates the yield tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutYieldBatch inserts or updates the latest yield of every pool.
func (s *Store) PutYieldBatch(ctx context.Context, computedAt time.Time, records []model.PoolYieldRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO pool_yields (
				pool, chain, project, symbol, tvl_usd, apy_base, apy_reward,
				underlying_tokens, reward_tokens, url, computed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (pool)
			DO UPDATE SET
				chain = EXCLUDED.chain,
				project = EXCLUDED.project,
				symbol = EXCLUDED.symbol,
				tvl_usd = EXCLUDED.tvl_usd,
				apy_base = EXCLUDED.apy_base,
				apy_reward = EXCLUDED.apy_reward,
				underlying_tokens = EXCLUDED.underlying_tokens,
				reward_tokens = EXCLUDED.reward_tokens,
				url = EXCLUDED.url,
				computed_at = EXCLUDED.computed_at,
				updated_at = now()
			WHERE pool_yields.computed_at <= EXCLUDED.computed_at
		`,
			r.Pool,
			r.Chain,
			r.Project,
			r.Symbol,
			r.TVLUSD,
			r.APYBase,
			r.APYReward,
			r.UnderlyingTokens,
			r.RewardTokens,
			r.URL,
			computedAt.UTC(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_run_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_run_ts FROM yield_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_run_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO yield_state (name, last_run_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_run_ts = EXCLUDED.last_run_ts, updated_at = now()
	`, name, int64(ts))
	return err
}
