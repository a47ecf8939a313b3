package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save insert/update satu run. Recording the same run_id twice overwrites
// the previous row (upsert), so a manual resubmission wins.
func (r *RunRepository) Save(ctx context.Context, res *domain.AnalysisResult, category string, artifactURL string, createdAt time.Time) error {
	const q = `
INSERT INTO catalog_runs
(run_id, product_id, category, route, generated, best_path, source_hash,
 final_score, iterations, candidates_json, feedback_json, artifact_url, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 route=VALUES(route), generated=VALUES(generated), best_path=VALUES(best_path),
 source_hash=VALUES(source_hash), final_score=VALUES(final_score),
 iterations=VALUES(iterations), candidates_json=VALUES(candidates_json),
 feedback_json=VALUES(feedback_json), artifact_url=VALUES(artifact_url);
`
	candidatesJSON, feedbackJSON, err := marshalSubObjects(res)
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
		candidatesJSON, feedbackJSON, artifactURL, createdAt,
	)
	return err
}

// Get by run id, reconstructing the structured sub-objects
func (r *RunRepository) Get(ctx context.Context, id domain.RunID) (*domain.AnalysisResult, error) {
	const q = `
SELECT run_id, product_id, route, generated, best_path, source_hash,
       final_score, iterations, candidates_json, feedback_json
FROM catalog_runs
WHERE run_id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanResult(row)
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
LIMIT ?;
`
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*domain.AnalysisResult, error) {
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

// marshalSubObjects serializes candidates and feedback, normalizing nil
// slices to empty so the round trip is stable.
func marshalSubObjects(res *domain.AnalysisResult) (string, string, error) {
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
		return "", "", err
	}
	fj, err := json.Marshal(fb)
	if err != nil {
		return "", "", err
	}
	return string(cj), string(fj), nil
}
