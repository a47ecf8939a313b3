package faults

import "time"

// Stage of the submission at which a run failed
type Stage string

const (
	StageEncode  Stage = "encode"
	StageSpawn   Stage = "spawn"
	StageTimeout Stage = "timeout"
	StageWorker  Stage = "worker"
	StageOutput  Stage = "output"
	StageRecord  Stage = "record"
)

// Fault represents a persisted submission failure entry
type Fault struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	ProductID   string    `json:"product_id,omitempty"`
	Stage       Stage     `json:"stage"`
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
