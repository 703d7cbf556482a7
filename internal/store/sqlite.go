package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_consultations_status ON consultations(status);
CREATE INDEX IF NOT EXISTS idx_consultations_area ON consultations(area);
CREATE INDEX IF NOT EXISTS idx_consultations_created_at ON consultations(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveConsultation(ctx context.Context, c model.Consultation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consultations
			(id, category, area, price_level, status, block_reason, filter_tier, num_reviews, input_tokens, output_tokens, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Category, c.Area, c.PriceLevel, string(c.Status), c.BlockReason,
		c.FilterTierUsed, c.NumReviewsRetrieved, c.InputTokens, c.OutputTokens, c.LatencyMS, c.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert consultation %s", c.ID)
	}
	return nil
}

func (s *SQLiteStore) GetConsultation(ctx context.Context, id string) (*model.Consultation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, area, price_level, status, block_reason, filter_tier, num_reviews, input_tokens, output_tokens, latency_ms, created_at
		 FROM consultations WHERE id = ?`, id,
	)
	c, err := scanConsultation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get consultation %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListConsultations(ctx context.Context, filter Filter) ([]model.Consultation, error) {
	query := `SELECT id, category, area, price_level, status, block_reason, filter_tier, num_reviews, input_tokens, output_tokens, latency_ms, created_at
		FROM consultations WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Area != "" {
		query += ` AND area = ?`
		args = append(args, filter.Area)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list consultations")
	}
	defer rows.Close()

	var out []model.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan consultation")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.AdviceStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, count(*) FROM consultations GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close()

	counts := make(map[model.AdviceStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		counts[model.AdviceStatus(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsultation(row rowScanner) (*model.Consultation, error) {
	var c model.Consultation
	var status string
	if err := row.Scan(&c.ID, &c.Category, &c.Area, &c.PriceLevel, &status, &c.BlockReason,
		&c.FilterTierUsed, &c.NumReviewsRetrieved, &c.InputTokens, &c.OutputTokens, &c.LatencyMS, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Status = model.AdviceStatus(status)
	return &c, nil
}
