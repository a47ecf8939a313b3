package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rahulnair/sparkle-catalog/internal/application"
	appreview "github.com/rahulnair/sparkle-catalog/internal/application/review"
	appruns "github.com/rahulnair/sparkle-catalog/internal/application/runs"
	faultdom "github.com/rahulnair/sparkle-catalog/internal/domain/faults"
	reviewdom "github.com/rahulnair/sparkle-catalog/internal/domain/review"
	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
	"github.com/rahulnair/sparkle-catalog/internal/infra/ai/prompt"
)

type fakeRunner struct {
	result *domain.AnalysisResult
	err    error
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeRepo struct {
	byID    map[domain.RunID]*domain.AnalysisResult
	entries []domain.HistoryEntry
	getErr  error
	saved   int
	lastLim int
}

func (f *fakeRepo) Save(ctx context.Context, res *domain.AnalysisResult, category, artifactURL string, createdAt time.Time) error {
	f.saved++
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id domain.RunID) (*domain.AnalysisResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	res, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

func (f *fakeRepo) Latest(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	f.lastLim = limit
	return f.entries, nil
}

type fakeFaults struct {
	items []*faultdom.Fault
}

func (f *fakeFaults) Save(ctx context.Context, fault *faultdom.Fault) error {
	f.items = append(f.items, fault)
	return nil
}

func (f *fakeFaults) ListByRun(ctx context.Context, runID string, limit int) ([]*faultdom.Fault, error) {
	return f.items, nil
}

type fakeReviews struct {
	saved []*reviewdom.Review
}

func (f *fakeReviews) Save(ctx context.Context, r *reviewdom.Review) error {
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeReviews) Paginate(ctx context.Context, page, pageSize int) ([]*reviewdom.Review, error) {
	return f.saved, nil
}

func (f *fakeReviews) LatestByRun(ctx context.Context, runID string) (*reviewdom.Review, error) {
	if len(f.saved) == 0 {
		return nil, nil
	}
	return f.saved[len(f.saved)-1], nil
}

func sampleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		RunID:     "r1",
		ProductID: "P1",
		Route:     domain.RouteEnhanced,
		Best: domain.BestImage{
			Generated:  true,
			Path:       "out/r1/best.png",
			FinalScore: 0.9,
		},
		Iterations: 2,
		Candidates: []domain.Candidate{
			{Path: "out/r1/c0.png", Mode: domain.ModeEdit, Iter: 0},
		},
		Feedback: domain.Feedback{Why: []string{"glare"}, RequiredChanges: []string{}},
	}
}

func newTestRouter(repo *fakeRepo, runner *fakeRunner, outputDir string) http.Handler {
	runsSvc := &appruns.Service{
		Repo:   repo,
		Runner: runner,
		Faults: &fakeFaults{},
		Clock:  application.SystemClock{},
	}
	reviewSvc := &appreview.Service{
		Repo:   &fakeReviews{},
		Runs:   repo,
		Client: prompt.Local{},
		Clock:  application.SystemClock{},
	}
	return NewRouter(runsSvc, reviewSvc, outputDir)
}

func validBody() string {
	img := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	return fmt.Sprintf(`{"product_id":"P1","category":"watches","images":[{"b64":"%s"}],"meta":{"allow_wear":false}}`, img)
}

func TestRunHappyPath(t *testing.T) {
	repo := &fakeRepo{byID: map[domain.RunID]*domain.AnalysisResult{}}
	runner := &fakeRunner{result: sampleResult()}
	h := newTestRouter(repo, runner, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(validBody()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got domain.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RunID != "r1" || got.ProductID != "P1" || got.Route != domain.RouteEnhanced {
		t.Errorf("unexpected result: %+v", got)
	}
	if repo.saved != 1 {
		t.Errorf("saved = %d, want 1", repo.saved)
	}
}

func TestRunValidation(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("x"))
	cases := []struct {
		name string
		body string
	}{
		{"empty images", `{"product_id":"P1","category":"watches","images":[]}`},
		{"missing product_id", fmt.Sprintf(`{"category":"watches","images":[{"b64":"%s"}]}`, img)},
		{"missing category", fmt.Sprintf(`{"product_id":"P1","images":[{"b64":"%s"}]}`, img)},
		{"bad base64", `{"product_id":"P1","category":"watches","images":[{"b64":"not base64!!"}]}`},
		{"malformed json", `{"product_id":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{byID: map[domain.RunID]*domain.AnalysisResult{}}
			runner := &fakeRunner{result: sampleResult()}
			h := newTestRouter(repo, runner, t.TempDir())

			req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %s", rec.Body.String())
			}
			if _, ok := body["error"]; !ok {
				t.Errorf("missing error field: %v", body)
			}
			if runner.calls != 0 {
				t.Errorf("runner invoked on invalid input")
			}
		})
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	repo := &fakeRepo{entries: []domain.HistoryEntry{
		{RunID: "r2", ProductID: "P1", Route: domain.RouteGenerated, FinalScore: 0.8},
		{RunID: "r1", ProductID: "P1", Route: domain.RouteOriginal, FinalScore: 0.7},
	}}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if repo.lastLim != 50 {
		t.Errorf("limit = %d, want default 50", repo.lastLim)
	}
	var list []domain.HistoryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].RunID != "r2" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestHistoryLimitClamped(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/history?limit=500", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if repo.lastLim != 50 {
		t.Errorf("limit = %d, want clamped 50", repo.lastLim)
	}
}

func TestGetRun(t *testing.T) {
	res := sampleResult()
	repo := &fakeRepo{byID: map[domain.RunID]*domain.AnalysisResult{"r1": res}}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/history/r1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got domain.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "r1" {
		t.Errorf("run_id = %s", got.RunID)
	}
}

func TestGetRunNotFound(t *testing.T) {
	repo := &fakeRepo{byID: map[domain.RunID]*domain.AnalysisResult{}}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/history/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %s", rec.Body.String())
	}
	if body["error"] != "Run not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestGetRunStoreFailure(t *testing.T) {
	repo := &fakeRepo{getErr: fmt.Errorf("connection refused")}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/history/r1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %s", rec.Body.String())
	}
	if body["error"] != "Internal error" {
		t.Errorf("error = %v", body["error"])
	}
	if body["details"] == "" {
		t.Errorf("details missing")
	}
}

func TestRunFaultsEndpoint(t *testing.T) {
	repo := &fakeRepo{byID: map[domain.RunID]*domain.AnalysisResult{}}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/history/r1/faults", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReviewRun(t *testing.T) {
	res := sampleResult()
	repo := &fakeRepo{byID: map[domain.RunID]*domain.AnalysisResult{"r1": res}}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/ai/review", strings.NewReader(`{"run_id":"r1"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var rev reviewdom.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &rev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rev.RunID != "r1" {
		t.Errorf("run_id = %s", rev.RunID)
	}
}

func TestReviewRunUnknownRun(t *testing.T) {
	repo := &fakeRepo{byID: map[domain.RunID]*domain.AnalysisResult{}}
	h := newTestRouter(repo, &fakeRunner{}, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/ai/review", strings.NewReader(`{"run_id":"ghost"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
