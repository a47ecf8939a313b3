package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/rahulnair/sparkle-catalog/internal/application"
	faultdom "github.com/rahulnair/sparkle-catalog/internal/domain/faults"
	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

// Service implements use-cases untuk Run submissions dan history.
// Safe for concurrent use: every submission gets its own payload file and
// worker process, and the repository relies on the database for locking.
type Service struct {
	Repo      domain.Repository
	Runner    domain.Runner
	Faults    faultdom.Repository  // optional; nil disables the fault log
	Artifacts domain.ArtifactStore // optional; nil skips archiving
	Clock     application.Clock
}

//
// ==== USE CASES ====
//

// Submit runs the analysis pipeline once and records the outcome.
// Persistence is write-through best effort: a completed result is returned
// to the caller even when the history row could not be written.
func (s *Service) Submit(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	res, err := s.Runner.Run(ctx, req)
	if err != nil {
		s.logFault(req.ProductID, "", err)
		return nil, err
	}

	artifactURL := ""
	if s.Artifacts != nil && res.Best.Path != "" {
		key := fmt.Sprintf("%s/%s/%s", req.ProductID, res.RunID, filepath.Base(res.Best.Path))
		url, aerr := s.Artifacts.Upload(ctx, res.Best.Path, key)
		if aerr != nil {
			log.Printf("warning: artifact upload failed for run %s: %v", res.RunID, aerr)
		} else {
			artifactURL = url
		}
	}

	if err := s.Repo.Save(ctx, res, req.Category, artifactURL, s.Clock.Now()); err != nil {
		log.Printf("warning: failed to record run %s: %v", res.RunID, err)
		s.logFault(req.ProductID, string(res.RunID), &recordError{err})
	}
	return res, nil
}

// History ambil N run terakhir
func (s *Service) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	return s.Repo.Latest(ctx, limit)
}

// Get ambil 1 run by id
func (s *Service) Get(ctx context.Context, id domain.RunID) (*domain.AnalysisResult, error) {
	return s.Repo.Get(ctx, id)
}

// FaultsFor lists recorded failures for one run id
func (s *Service) FaultsFor(ctx context.Context, runID string, limit int) ([]*faultdom.Fault, error) {
	if s.Faults == nil {
		return nil, nil
	}
	return s.Faults.ListByRun(ctx, runID, limit)
}

type recordError struct{ err error }

func (e *recordError) Error() string { return "record run: " + e.err.Error() }
func (e *recordError) Unwrap() error { return e.err }

// logFault classifies err into a fault stage and stores it best effort.
// Uses a background context: the submission context may already be done.
func (s *Service) logFault(productID, runID string, err error) {
	if s.Faults == nil {
		return
	}
	stage, details := classify(err)
	f := &faultdom.Fault{
		RunID:       runID,
		ProductID:   productID,
		Stage:       stage,
		Message:     err.Error(),
		DetailsJSON: details,
		CreatedAt:   s.Clock.Now(),
	}
	if serr := s.Faults.Save(context.Background(), f); serr != nil {
		log.Printf("warning: failed to record fault for product %s: %v", productID, serr)
	}
}

func classify(err error) (faultdom.Stage, string) {
	var (
		encErr  *domain.EncodeError
		spawn   *domain.StartError
		exit    *domain.ExitError
		out     *domain.OutputError
		persist *recordError
	)
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return faultdom.StageTimeout, ""
	case errors.As(err, &encErr):
		return faultdom.StageEncode, ""
	case errors.As(err, &spawn):
		return faultdom.StageSpawn, ""
	case errors.As(err, &exit):
		b, _ := json.Marshal(map[string]any{"exit_code": exit.Code, "stderr": exit.Stderr})
		return faultdom.StageWorker, string(b)
	case errors.As(err, &out):
		b, _ := json.Marshal(map[string]string{"last_line": out.Line})
		return faultdom.StageOutput, string(b)
	case errors.As(err, &persist):
		return faultdom.StageRecord, ""
	}
	return faultdom.StageWorker, ""
}
