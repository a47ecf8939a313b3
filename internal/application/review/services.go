package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rahulnair/sparkle-catalog/internal/application"
	aidom "github.com/rahulnair/sparkle-catalog/internal/domain/ai"
	domain "github.com/rahulnair/sparkle-catalog/internal/domain/review"
	runsdom "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

// Service turns a finished run into seller-facing listing advice and keeps
// the reviews queryable.
type Service struct {
	Repo   domain.Repository
	Runs   runsdom.Repository
	Client aidom.Client
	Model  string
	Clock  application.Clock
}

// ReviewRun fetches the run result, asks the AI client for advice, and
// stores the review.
func (s *Service) ReviewRun(ctx context.Context, runID string) (*domain.Review, error) {
	res, err := s.Runs.Get(ctx, runsdom.RunID(runID))
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal run result: %w", err)
	}

	out, err := s.Client.Review(ctx, string(payload))
	if err != nil {
		return nil, err
	}

	rev := &domain.Review{
		ID:        domain.ReviewID(uuid.New().String()),
		RunID:     runID,
		ProductID: res.ProductID,
		Model:     s.Model,
		Result:    out,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// List returns a page of stored reviews, newest first
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*domain.Review, error) {
	return s.Repo.Paginate(ctx, page, pageSize)
}

// LatestFor returns the newest review for a run, or nil when none exists
func (s *Service) LatestFor(ctx context.Context, runID string) (*domain.Review, error) {
	return s.Repo.LatestByRun(ctx, runID)
}
