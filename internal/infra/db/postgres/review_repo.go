package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/review"
)

type ReviewRepository struct{ db *sql.DB }

func NewReviewRepository(db *sql.DB) *ReviewRepository { return &ReviewRepository{db: db} }

func (r *ReviewRepository) Save(ctx context.Context, rev *domain.Review) error {
	const q = `
INSERT INTO catalog_reviews
  (id, run_id, product_id, model, result_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  run_id = EXCLUDED.run_id,
  product_id = EXCLUDED.product_id,
  model = EXCLUDED.model,
  result_json = EXCLUDED.result_json;`

	result := rev.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := rev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, rev.ID, rev.RunID, rev.ProductID, rev.Model, result, createdAt)
	return err
}

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
LIMIT $1 OFFSET $2;`
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

func (r *ReviewRepository) LatestByRun(ctx context.Context, runID string) (*domain.Review, error) {
	const q = `
SELECT id, run_id, product_id, model, result_json, created_at
FROM catalog_reviews
WHERE run_id = $1
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
