package runs

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, res *AnalysisResult, category string, artifactURL string, createdAt time.Time) error
	Get(ctx context.Context, id RunID) (*AnalysisResult, error)
	Latest(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// Runner port (interface untuk eksekusi pipeline worker)
type Runner interface {
	Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}

// ArtifactStore port (interface untuk penyimpanan gambar hasil)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
