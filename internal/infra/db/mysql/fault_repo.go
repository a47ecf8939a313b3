package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/faults"
)

type FaultRepository struct {
	db *sql.DB
}

func NewFaultRepository(db *sql.DB) *FaultRepository { return &FaultRepository{db: db} }

func (r *FaultRepository) Save(ctx context.Context, f *domain.Fault) error {
	const q = `
INSERT INTO catalog_run_faults
  (run_id, product_id, stage, message, details_json, created_at)
VALUES (?,?,?,?,?,?)
`
	run := dashIfEmpty(f.RunID)
	product := dashIfEmpty(f.ProductID)
	stage := dashIfEmpty(string(f.Stage))
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	details := f.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	} else {
		// ensure valid json; if invalid, wrap as string field
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
	_, err := r.db.ExecContext(ctx, q, run, product, stage, msg, details, created)
	return err
}

func (r *FaultRepository) ListByRun(ctx context.Context, runID string, limit int) ([]*domain.Fault, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, run_id, product_id, stage, message, details_json, created_at
FROM catalog_run_faults
WHERE run_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
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

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
