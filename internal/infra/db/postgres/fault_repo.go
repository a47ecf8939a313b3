package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/faults"
)

type FaultRepository struct{ db *sql.DB }

func NewFaultRepository(db *sql.DB) *FaultRepository { return &FaultRepository{db: db} }

func (r *FaultRepository) Save(ctx context.Context, f *domain.Fault) error {
	const q = `
INSERT INTO catalog_run_faults
  (run_id, product_id, stage, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	details := f.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	} else {
		var js any
		if json.Unmarshal([]byte(details), &js) != nil {
			b, _ := json.Marshal(map[string]string{"raw": details})
			details = string(b)
		}
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(f.RunID), stringOrDash(f.ProductID), stringOrDash(string(f.Stage)),
		stringOrDash(f.Message), details, created,
	)
	return err
}

func (r *FaultRepository) ListByRun(ctx context.Context, runID string, limit int) ([]*domain.Fault, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, run_id, product_id, stage, message, details_json, created_at
FROM catalog_run_faults
WHERE run_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Fault
	for rows.Next() {
		var f domain.Fault
		var created time.Time
		if err := rows.Scan(&f.ID, &f.RunID, &f.ProductID, &f.Stage, &f.Message, &f.DetailsJSON, &created); err != nil {
			return nil, err
		}
		f.CreatedAt = created
		out = append(out, &f)
	}
	return out, rows.Err()
}
