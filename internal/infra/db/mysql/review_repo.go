package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/review"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Save inserts a review record
func (r *ReviewRepository) Save(ctx context.Context, rev *domain.Review) error {
	const q = `
INSERT INTO catalog_reviews
  (id, run_id, product_id, model, result_json, created_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  run_id=VALUES(run_id), product_id=VALUES(product_id), model=VALUES(model), result_json=VALUES(result_json);
`
	result := rev.Result
	if strings.TrimSpace(result) == "" {
		// result_json column requires valid JSON; use empty object
		result = "{}"
	}
	createdAt := rev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, rev.ID, rev.RunID, rev.ProductID, rev.Model, result, createdAt)
	return err
}

// Paginate returns a page of review records ordered by created_at desc
func (r *ReviewRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Review, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, run_id, product_id, model, result_json, created_at
FROM catalog_reviews
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Review
	for rows.Next() {
		var rev domain.Review
		var created time.Time
		if err := rows.Scan(&rev.ID, &rev.RunID, &rev.ProductID, &rev.Model, &rev.Result, &created); err != nil {
			return nil, err
		}
		rev.CreatedAt = created
		out = append(out, &rev)
	}
	return out, rows.Err()
}

// LatestByRun returns the most recent review for one run, or nil
func (r *ReviewRepository) LatestByRun(ctx context.Context, runID string) (*domain.Review, error) {
	const q = `
SELECT id, run_id, product_id, model, result_json, created_at
FROM catalog_reviews
WHERE run_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	var rev domain.Review
	var created time.Time
	err := r.db.QueryRowContext(ctx, q, runID).Scan(&rev.ID, &rev.RunID, &rev.ProductID, &rev.Model, &rev.Result, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rev.CreatedAt = created
	return &rev, nil
}
