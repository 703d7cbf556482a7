package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/pkg/embeddings"
)

// Pool is the subset of pgxpool.Pool used by the store. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// identityColumns and vibeColumns mirror the ingestion schema. Order matters:
// insert statements and row scans build on these slices.
var identityColumns = []string{"category", "area", "price_level"}

var vibeColumns = []string{
	"dine_in", "takeout", "delivery", "reservable",
	"serves_breakfast", "serves_lunch", "serves_dinner",
	"serves_coffee", "serves_dessert", "outdoor_seating",
	"live_music", "good_for_children", "good_for_groups",
	"good_for_watching_sports", "restroom", "parking_free_lot",
	"parking_free_street", "accepts_debit_cards", "accepts_cash_only",
	"wheelchair_accessible", "is_open_24_7", "open_after_midnight",
	"is_closed_any_day",
}

// PostgresStore implements Store on Postgres + pgvector.
type PostgresStore struct {
	pool     Pool
	embedder embeddings.Client
	dim      int
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, embedder embeddings.Client, dim int, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "vectorstore: parse config")
	}

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

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "vectorstore: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "vectorstore: ping")
	}
	return &PostgresStore{pool: pool, embedder: embedder, dim: dim}, nil
}

// NewPostgresWithPool wires an existing pool, for tests.
func NewPostgresWithPool(pool Pool, embedder embeddings.Client, dim int) *PostgresStore {
	return &PostgresStore{pool: pool, embedder: embedder, dim: dim}
}

// Migrate creates the pgvector extension, the reviews table, and the ANN index.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reviews (
	id          TEXT PRIMARY KEY,
	body        TEXT NOT NULL,
	rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
	category    TEXT NOT NULL DEFAULT '',
	area        TEXT NOT NULL DEFAULT '',
	price_level TEXT NOT NULL DEFAULT '',
	%s,
	embedding   vector(%d) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`, boolColumnDDL(), s.dim),
		`CREATE INDEX IF NOT EXISTS idx_reviews_identity ON reviews(category, area, price_level)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_embedding ON reviews USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "vectorstore: migrate")
		}
	}
	return nil
}

func boolColumnDDL() string {
	parts := make([]string, len(vibeColumns))
	for i, col := range vibeColumns {
		parts[i] = fmt.Sprintf("%s BOOLEAN NOT NULL DEFAULT false", col)
	}
	return strings.Join(parts, ",\n\t")
}

// Query embeds the text and returns the k nearest reviews matching the
// predicate, ordered by cosine distance.
func (s *PostgresStore) Query(ctx context.Context, text string, k int, pred Predicate) ([]model.ScoredReview, error) {
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, eris.Wrap(err, "vectorstore: embed query")
	}

	where, args := compilePredicate(pred, 2)
	sql := fmt.Sprintf(
		`SELECT id, body, rating, %s, embedding <=> $1 AS distance FROM reviews%s ORDER BY embedding <=> $1 LIMIT %d`,
		strings.Join(append(append([]string{}, identityColumns...), vibeColumns...), ", "),
		where, k,
	)
	queryArgs := append([]any{pgvector.NewVector(vec)}, args...)

	rows, err := s.pool.Query(ctx, sql, queryArgs...)
	if err != nil {
		return nil, eris.Wrap(err, "vectorstore: query")
	}
	defer rows.Close()

	var out []model.ScoredReview
	for rows.Next() {
		sr, err := scanScoredReview(rows)
		if err != nil {
			return nil, eris.Wrap(err, "vectorstore: scan row")
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "vectorstore: rows")
	}
	return out, nil
}

// compilePredicate renders the predicate as a parameterized WHERE clause.
// startIdx is the first free placeholder ordinal.
func compilePredicate(pred Predicate, startIdx int) (string, []any) {
	if len(pred) == 0 {
		return "", nil
	}
	clauses := make([]string, len(pred))
	args := make([]any, len(pred))
	for i, c := range pred {
		clauses[i] = fmt.Sprintf("%s = $%d", c.Field, startIdx+i)
		args[i] = c.Value
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanScoredReview(rows pgx.Rows) (model.ScoredReview, error) {
	var (
		doc  model.ReviewDocument
		dist float64
	)
	m := &doc.Metadata
	dest := []any{&doc.ID, &doc.Text, &doc.Rating, &m.Category, &m.Area, &m.PriceLevel}
	dest = append(dest,
		&m.DineIn, &m.Takeout, &m.Delivery, &m.Reservable,
		&m.ServesBreakfast, &m.ServesLunch, &m.ServesDinner,
		&m.ServesCoffee, &m.ServesDessert, &m.OutdoorSeating,
		&m.LiveMusic, &m.GoodForChildren, &m.GoodForGroups,
		&m.GoodForWatchingSports, &m.Restroom, &m.ParkingFreeLot,
		&m.ParkingFreeStreet, &m.AcceptsDebitCards, &m.AcceptsCashOnly,
		&m.WheelchairAccessible, &m.IsOpen247, &m.OpenAfterMidnight,
		&m.IsClosedAnyDay,
	)
	dest = append(dest, &dist)
	if err := rows.Scan(dest...); err != nil {
		return model.ScoredReview{}, err
	}
	return model.ScoredReview{Review: doc, Distance: dist}, nil
}

// Add upserts review documents, embedding their bodies in one batch call.
func (s *PostgresStore) Add(ctx context.Context, docs []model.ReviewDocument) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return eris.Wrap(err, "vectorstore: embed batch")
	}
	if len(vecs) != len(docs) {
		return eris.New("vectorstore: embedding count mismatch")
	}

	for i, d := range docs {
		args := []any{d.ID, d.Text, d.Rating, d.Metadata.Category, d.Metadata.Area, d.Metadata.PriceLevel}
		args = append(args, metadataBoolValues(d.Metadata)...)
		args = append(args, pgvector.NewVector(vecs[i]))
		if _, err := s.pool.Exec(ctx, upsertReviewSQL, args...); err != nil {
			return eris.Wrapf(err, "vectorstore: upsert %s", d.ID)
		}
	}
	zap.L().Debug("vectorstore batch upserted", zap.Int("docs", len(docs)))
	return nil
}

var upsertReviewSQL = buildUpsertSQL()

func buildUpsertSQL() string {
	cols := append([]string{"id", "body", "rating"}, identityColumns...)
	cols = append(cols, vibeColumns...)
	cols = append(cols, "embedding")
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sets := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	return fmt.Sprintf(
		"INSERT INTO reviews (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "),
	)
}

func metadataBoolValues(m model.ReviewMetadata) []any {
	return []any{
		m.DineIn, m.Takeout, m.Delivery, m.Reservable,
		m.ServesBreakfast, m.ServesLunch, m.ServesDinner,
		m.ServesCoffee, m.ServesDessert, m.OutdoorSeating,
		m.LiveMusic, m.GoodForChildren, m.GoodForGroups,
		m.GoodForWatchingSports, m.Restroom, m.ParkingFreeLot,
		m.ParkingFreeStreet, m.AcceptsDebitCards, m.AcceptsCashOnly,
		m.WheelchairAccessible, m.IsOpen247, m.OpenAfterMidnight,
		m.IsClosedAnyDay,
	}
}

// Count returns the number of stored reviews.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM reviews`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "vectorstore: count")
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
