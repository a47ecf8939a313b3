package review

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/review"
	runsdom "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeRuns struct {
	byID map[runsdom.RunID]*runsdom.AnalysisResult
}

func (f *fakeRuns) Save(ctx context.Context, res *runsdom.AnalysisResult, category, artifactURL string, createdAt time.Time) error {
	return nil
}

func (f *fakeRuns) Get(ctx context.Context, id runsdom.RunID) (*runsdom.AnalysisResult, error) {
	res, ok := f.byID[id]
	if !ok {
		return nil, runsdom.ErrNotFound
	}
	return res, nil
}

func (f *fakeRuns) Latest(ctx context.Context, limit int) ([]runsdom.HistoryEntry, error) {
	return nil, nil
}

type fakeReviewRepo struct {
	saved []*domain.Review
}

func (f *fakeReviewRepo) Save(ctx context.Context, r *domain.Review) error {
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeReviewRepo) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Review, error) {
	return f.saved, nil
}

func (f *fakeReviewRepo) LatestByRun(ctx context.Context, runID string) (*domain.Review, error) {
	return nil, nil
}

type echoClient struct {
	seen string
}

func (c *echoClient) Review(_ context.Context, resultJSON string) (string, error) {
	c.seen = resultJSON
	return `{"verdict":"use_enhanced"}`, nil
}

func TestReviewRunStoresAdvice(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	runs := &fakeRuns{byID: map[runsdom.RunID]*runsdom.AnalysisResult{
		"r1": {
			RunID:     "r1",
			ProductID: "P1",
			Route:     runsdom.RouteEnhanced,
			Best:      runsdom.BestImage{Generated: true, Path: "out/r1/best.png", FinalScore: 0.9},
		},
	}}
	repo := &fakeReviewRepo{}
	client := &echoClient{}
	svc := &Service{Repo: repo, Runs: runs, Client: client, Model: "gpt-4o-mini", Clock: fixedClock{now}}

	rev, err := svc.ReviewRun(context.Background(), "r1")
	if err != nil {
		t.Fatalf("ReviewRun: %v", err)
	}
	if rev.RunID != "r1" || rev.ProductID != "P1" || rev.Model != "gpt-4o-mini" {
		t.Errorf("unexpected review: %+v", rev)
	}
	if rev.ID == "" {
		t.Error("review id not assigned")
	}
	if !rev.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v", rev.CreatedAt)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saved = %d", len(repo.saved))
	}

	// klien harus menerima hasil run sebagai JSON
	var payload runsdom.AnalysisResult
	if err := json.Unmarshal([]byte(client.seen), &payload); err != nil {
		t.Fatalf("client payload is not the run result: %v", err)
	}
	if payload.RunID != "r1" {
		t.Errorf("payload run_id = %s", payload.RunID)
	}
}

func TestReviewRunUnknownRun(t *testing.T) {
	svc := &Service{
		Repo:   &fakeReviewRepo{},
		Runs:   &fakeRuns{byID: map[runsdom.RunID]*runsdom.AnalysisResult{}},
		Client: &echoClient{},
		Clock:  fixedClock{time.Now()},
	}

	_, err := svc.ReviewRun(context.Background(), "ghost")
	if !errors.Is(err, runsdom.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
