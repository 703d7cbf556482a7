package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	insertConsultationSQL = `INSERT INTO consultations
		(id, category, area, price_level, status, block_reason, filter_tier, num_reviews, input_tokens, output_tokens, latency_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	selectConsultationSQL = `SELECT id, category, area, price_level, status, block_reason, filter_tier, num_reviews, input_tokens, output_tokens, latency_ms, created_at
	FROM consultations WHERE id = $1`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path store operations.
var preparedStatements = map[string]string{
	"insert_consultation": insertConsultationSQL,
	"get_consultation":    selectConsultationSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wires an existing pool, for tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS consultations (
	id            TEXT PRIMARY KEY,
	category      TEXT NOT NULL DEFAULT '',
	area          TEXT NOT NULL DEFAULT '',
	price_level   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	block_reason  TEXT NOT NULL DEFAULT '',
	filter_tier   INTEGER NOT NULL DEFAULT 0,
	num_reviews   INTEGER NOT NULL DEFAULT 0,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms    BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_consultations_status ON consultations(status);
CREATE INDEX IF NOT EXISTS idx_consultations_area ON consultations(area);
CREATE INDEX IF NOT EXISTS idx_consultations_created_at ON consultations(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveConsultation(ctx context.Context, c model.Consultation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, insertConsultationSQL,
		c.ID, c.Category, c.Area, c.PriceLevel, string(c.Status), c.BlockReason,
		c.FilterTierUsed, c.NumReviewsRetrieved, c.InputTokens, c.OutputTokens, c.LatencyMS, c.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert consultation %s", c.ID)
	}
	return nil
}

func (s *PostgresStore) GetConsultation(ctx context.Context, id string) (*model.Consultation, error) {
	row := s.pool.QueryRow(ctx, selectConsultationSQL, id)
	c, err := scanConsultation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get consultation %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListConsultations(ctx context.Context, filter Filter) ([]model.Consultation, error) {
	query := `SELECT id, category, area, price_level, status, block_reason, filter_tier, num_reviews, input_tokens, output_tokens, latency_ms, created_at
		FROM consultations WHERE 1=1`
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}
	if filter.Status != "" {
		query += ` AND status = ` + next(string(filter.Status))
	}
	if filter.Area != "" {
		query += ` AND area = ` + next(filter.Area)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ` + next(filter.CreatedAfter)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + next(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list consultations")
	}
	defer rows.Close()

	var out []model.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan consultation")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[model.AdviceStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM consultations GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := make(map[model.AdviceStatus]int)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		counts[model.AdviceStatus(status)] = int(n)
	}
	return counts, rows.Err()
}
