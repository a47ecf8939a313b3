package review

import "context"

// Repository port for persisting and querying listing reviews
type Repository interface {
	Save(ctx context.Context, r *Review) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Review, error)
	LatestByRun(ctx context.Context, runID string) (*Review, error)
}
