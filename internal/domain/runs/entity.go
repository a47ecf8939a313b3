package runs

import (
	"time"
)

// ID tipe untuk Run
type RunID string

// Route enum: which chain produced the best image
type Route string

const (
	RouteOriginal  Route = "A" // best original kept as-is
	RouteEnhanced  Route = "B" // edit chain
	RouteGenerated Route = "C" // compose chain
)

// CandidateMode enum
type CandidateMode string

const (
	ModeEdit     CandidateMode = "edit"
	ModeGenerate CandidateMode = "generate"
)

// ImageInput is one uploaded product image, base64 encoded
type ImageInput struct {
	B64 string `json:"b64"`
}

// RequestMeta carries seller-side toggles passed through to the pipeline
type RequestMeta struct {
	AllowWear bool `json:"allow_wear"`
}

// AnalysisRequest is the payload handed to the pipeline worker
type AnalysisRequest struct {
	ProductID string       `json:"product_id"`
	Category  string       `json:"category"`
	Images    []ImageInput `json:"images"`
	Meta      RequestMeta  `json:"meta"`
}

// BestImage value object
type BestImage struct {
	Generated  bool    `json:"generated"`
	Path       string  `json:"path"`
	SourceHash *string `json:"source_hash"`
	FinalScore float64 `json:"final_score"`
}

// Candidate is one intermediate image produced during edit/compose iterations
type Candidate struct {
	Path string        `json:"path"`
	Mode CandidateMode `json:"mode"`
	Iter int           `json:"iter"`
}

// Feedback from the reviewer chain
type Feedback struct {
	Why             []string `json:"why"`
	RequiredChanges []string `json:"required_changes"`
}

// Aggregate Root: AnalysisResult, the worker's final output for one run
type AnalysisResult struct {
	RunID      RunID       `json:"run_id"`
	ProductID  string      `json:"product_id"`
	Route      Route       `json:"route"`
	Best       BestImage   `json:"best"`
	Iterations int         `json:"iterations"`
	Candidates []Candidate `json:"candidates"`
	Feedback   Feedback    `json:"feedback"`
}

// HistoryEntry is the persisted per-run summary shown in the dashboard list
type HistoryEntry struct {
	RunID       RunID     `json:"run_id"`
	ProductID   string    `json:"product_id"`
	Category    string    `json:"category,omitempty"`
	Route       Route     `json:"route"`
	CreatedAt   time.Time `json:"created_at"`
	FinalScore  float64   `json:"final_score"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
}

// Validate enforces the result shape the worker must emit.
// Route A means an original was kept: zero iterations, no candidates,
// best not generated, and a source hash identifying the chosen input.
func (r *AnalysisResult) Validate() error {
	if r.RunID == "" {
		return fieldErr("run_id is empty")
	}
	if r.ProductID == "" {
		return fieldErr("product_id is empty")
	}
	switch r.Route {
	case RouteOriginal, RouteEnhanced, RouteGenerated:
	default:
		return fieldErr("route must be one of A, B, C")
	}
	if r.Best.FinalScore < 0 || r.Best.FinalScore > 1 {
		return fieldErr("best.final_score must be in [0,1]")
	}
	if r.Route == RouteOriginal {
		if r.Iterations != 0 || len(r.Candidates) != 0 {
			return fieldErr("route A runs carry no iterations or candidates")
		}
		if r.Best.Generated {
			return fieldErr("route A best image cannot be generated")
		}
	} else if r.Best.SourceHash != nil {
		return fieldErr("source_hash only applies to route A")
	}
	return nil
}
