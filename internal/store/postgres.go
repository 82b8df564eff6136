package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/brandpulse/brandpulse/pkg/models"
)

const reportsSchema = `
CREATE TABLE IF NOT EXISTS reports (
	run_id          TEXT PRIMARY KEY,
	brand           TEXT NOT NULL,
	generated_at    TIMESTAMPTZ NOT NULL,
	sentiment_score DOUBLE PRECISION NOT NULL,
	total_count     INTEGER NOT NULL,
	payload         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_brand_generated_idx
	ON reports (brand, generated_at DESC);
`

// PGStore keeps full report history in Postgres. Score history drives the
// trend shown on the next run.
type PGStore struct {
	db *sql.DB
}

// NewPGStore opens the connection and ensures the schema exists.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, reportsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &PGStore{db: db}, nil
}

// Save upserts one report row keyed by run ID.
func (p *PGStore) Save(ctx context.Context, r models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: marshal report: %w", err)
	}

	const q = `
		INSERT INTO reports (run_id, brand, generated_at, sentiment_score, total_count, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			sentiment_score = EXCLUDED.sentiment_score,
			total_count     = EXCLUDED.total_count,
			payload         = EXCLUDED.payload`
	if _, err := p.db.ExecContext(ctx, q,
		r.RunID, r.Brand, r.GeneratedAt, r.SentimentScore, r.TotalCount, payload); err != nil {
		return fmt.Errorf("store: insert report: %w", err)
	}
	return nil
}

// RecentScores returns up to n prior sentiment scores for the brand, newest
// first. Runs with zero posts are skipped so empty windows do not drag the
// trend baseline toward zero.
func (p *PGStore) RecentScores(ctx context.Context, brand string, n int) ([]float64, error) {
	const q = `
		SELECT sentiment_score FROM reports
		WHERE brand = $1 AND total_count > 0
		ORDER BY generated_at DESC
		LIMIT $2`
	rows, err := p.db.QueryContext(ctx, q, brand, n)
	if err != nil {
		return nil, fmt.Errorf("store: query scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("store: scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (p *PGStore) Close() error { return p.db.Close() }
