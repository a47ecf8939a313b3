package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appreview "github.com/rahulnair/sparkle-catalog/internal/application/review"
	appruns "github.com/rahulnair/sparkle-catalog/internal/application/runs"
	domai "github.com/rahulnair/sparkle-catalog/internal/domain/ai"
	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
	"github.com/rahulnair/sparkle-catalog/internal/middleware"
)

type Router struct {
	runsSvc   *appruns.Service
	reviewSvc *appreview.Service
	outputs   *OutputsHandler
}

func NewRouter(runsSvc *appruns.Service, reviewSvc *appreview.Service, outputDir string) http.Handler {
	r := &Router{
		runsSvc:   runsSvc,
		reviewSvc: reviewSvc,
		outputs:   &OutputsHandler{Root: outputDir},
	}
	mux := chi.NewRouter()

	mux.Post("/run", r.wrap(r.handleRun))
	mux.Get("/history", r.wrap(r.handleHistory))
	mux.Get("/history/{runID}", r.wrap(r.handleGet))
	mux.Get("/history/{runID}/faults", r.wrap(r.handleFaults))

	mux.Post("/ai/review", r.wrap(r.handleReview))
	mux.Get("/ai/review", r.wrap(r.handleReviewList))

	mux.Get("/outputs/*", r.outputs.ServeHTTP)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks input errors so wrap can answer 400 instead of 500.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequest
			if errors.As(err, &br) {
				writeJSONError(w, http.StatusBadRequest, map[string]any{"error": br.Error()})
				return
			}
			if errors.Is(err, domain.ErrNotFound) {
				writeJSONError(w, http.StatusNotFound, map[string]any{"error": "Run not found"})
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				writeJSONError(w, http.StatusTooManyRequests, map[string]any{"error": "ai quota exceeded"})
				return
			}
			writeJSONError(w, http.StatusInternalServerError, map[string]any{
				"error":   "Internal error",
				"details": err.Error(),
			})
		}
	}
}

func writeJSONError(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// POST /run
// Body: {"product_id": "...", "category": "...", "images": [{"b64": "..."}], "meta": {...}}
// Runs the pipeline synchronously and returns the full analysis result.
func (r *Router) handleRun(w http.ResponseWriter, req *http.Request) error {
	var body domain.AnalysisRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{fmt.Errorf("invalid request body: %w", err)}
	}

	body.ProductID = middleware.SanitizeString(body.ProductID)
	body.Category = middleware.SanitizeString(body.Category)

	if err := middleware.ValidateProductID(body.ProductID); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateCategory(body.Category); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateImages(body.Images); err != nil {
		return badRequest{err}
	}

	middleware.IncrementRuns()
	middleware.IncrementRunsInFlight()
	result, err := r.runsSvc.Submit(req.Context(), body)
	middleware.DecrementRunsInFlight()
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			middleware.IncrementRunsTimedOut()
		}
		middleware.IncrementRunsFailed()
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /history?limit=50
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.runsSvc.History(req.Context(), limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /history/{runID}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "runID")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest{err}
	}

	res, err := r.runsSvc.Get(req.Context(), domain.RunID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /history/{runID}/faults
func (r *Router) handleFaults(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "runID")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest{err}
	}

	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	faults, err := r.runsSvc.FaultsFor(req.Context(), id, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(faults)
}

// POST /ai/review
// Body: {"run_id": "<id>"}
// Fetches the stored run result and asks the model for listing advice.
func (r *Router) handleReview(w http.ResponseWriter, req *http.Request) error {
	if r.reviewSvc == nil {
		return fmt.Errorf("ai review is not configured")
	}
	var body struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{fmt.Errorf("invalid request body: %w", err)}
	}
	if err := middleware.ValidateRunID(body.RunID); err != nil {
		return badRequest{err}
	}

	rev, err := r.reviewSvc.ReviewRun(req.Context(), body.RunID)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rev)
}

// GET /ai/review?page=&page_size=
func (r *Router) handleReviewList(w http.ResponseWriter, req *http.Request) error {
	if r.reviewSvc == nil {
		return fmt.Errorf("ai review is not configured")
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	size = middleware.ValidatePageSize(size)

	list, err := r.reviewSvc.List(req.Context(), page, size)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}
