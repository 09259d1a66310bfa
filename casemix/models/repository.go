package models

import "context"

// Repository persists pipeline runs and their provider summaries.
type Repository interface {
	CreateRun(ctx context.Context, run Run) error
	CreateProviderSummaries(ctx context.Context, runID string, summaries []ProviderSummary, batchSize int) error
	GetLatestRun(ctx context.Context) (*Run, error)
	GetProviderSummaries(ctx context.Context, runID string) ([]ProviderSummary, error)
}
