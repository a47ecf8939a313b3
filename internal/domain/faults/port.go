package faults

import (
	"context"
)

// Repository defines persistence for run faults
type Repository interface {
	Save(ctx context.Context, f *Fault) error
	ListByRun(ctx context.Context, runID string, limit int) ([]*Fault, error)
}
