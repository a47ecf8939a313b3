package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

type RunRepository struct{ db *sql.DB }

func NewRunRepository(db *sql.DB) *RunRepository { return &RunRepository{db: db} }

// Save insert/update satu run (upsert; a resubmitted run_id overwrites)
func (r *RunRepository) Save(ctx context.Context, res *domain.AnalysisResult, category string, artifactURL string, createdAt time.Time) error {
	const q = `
INSERT INTO catalog_runs
(run_id, product_id, category, route, generated, best_path, source_hash,
 final_score, iterations, candidates_json, feedback_json, artifact_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (run_id) DO UPDATE SET
 route = EXCLUDED.route,
 generated = EXCLUDED.generated,
 best_path = EXCLUDED.best_path,
 source_hash = EXCLUDED.source_hash,
 final_score = EXCLUDED.final_score,
 iterations = EXCLUDED.iterations,
 candidates_json = EXCLUDED.candidates_json,
 feedback_json = EXCLUDED.feedback_json,
 artifact_url = EXCLUDED.artifact_url;`

	candidates := res.Candidates
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	fb := res.Feedback
	if fb.Why == nil {
		fb.Why = []string{}
	}
	if fb.RequiredChanges == nil {
		fb.RequiredChanges = []string{}
	}
	cj, err := json.Marshal(candidates)
	if err != nil {
		return err
	}
	fj, err := json.Marshal(fb)
	if err != nil {
		return err
	}

	product := stringOrDash(res.ProductID)
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		res.RunID, product, category, res.Route,
		res.Best.Generated, res.Best.Path, res.Best.SourceHash,
		res.Best.FinalScore, res.Iterations,
		string(cj), string(fj), artifactURL, createdAt,
	)
	return err
}

// Get by run id
func (r *RunRepository) Get(ctx context.Context, id domain.RunID) (*domain.AnalysisResult, error) {
	const q = `
SELECT run_id, product_id, route, generated, best_path, source_hash,
       final_score, iterations, candidates_json, feedback_json
FROM catalog_runs
WHERE run_id=$1
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, id)

	var res domain.AnalysisResult
	var sourceHash sql.NullString
	var candidatesJSON, feedbackJSON []byte
	if err := row.Scan(
		&res.RunID, &res.ProductID, &res.Route, &res.Best.Generated, &res.Best.Path,
		&sourceHash, &res.Best.FinalScore, &res.Iterations,
		&candidatesJSON, &feedbackJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if sourceHash.Valid {
		h := sourceHash.String
		res.Best.SourceHash = &h
	}
	if err := json.Unmarshal(candidatesJSON, &res.Candidates); err != nil {
		return nil, &domain.DecodeError{Column: "candidates_json", Err: err}
	}
	if err := json.Unmarshal(feedbackJSON, &res.Feedback); err != nil {
		return nil, &domain.DecodeError{Column: "feedback_json", Err: err}
	}
	return &res, nil
}

// Latest runs, most recent first
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT run_id, product_id, category, route, created_at, final_score, artifact_url
FROM catalog_runs
ORDER BY created_at DESC, run_id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var artifact sql.NullString
		if err := rows.Scan(&e.RunID, &e.ProductID, &e.Category, &e.Route, &e.CreatedAt, &e.FinalScore, &artifact); err != nil {
			return nil, err
		}
		e.ArtifactURL = artifact.String
		out = append(out, e)
	}
	return out, rows.Err()
}
