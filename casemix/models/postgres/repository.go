package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/huandu/go-sqlbuilder"

	"github.com/CMSgov/casemix-app/casemix/models"
)

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type executable interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const (
	sqlFlavor = sqlbuilder.PostgreSQL

	// DefaultBatchSize keeps a summary INSERT well below the 65535 bind
	// parameter limit of the Postgres wire protocol.
	DefaultBatchSize = 500
)

var summaryColumns = []string{
	"run_id", "prvdr_id", "prvdr_name", "state",
	"avg_cost", "avg_casemix", "total_episodes", "cost_normalized",
}

// Ensure Repository satisfies the interface
var _ models.Repository = &Repository{}

// Repository stores runs and provider summaries in Postgres.
type Repository struct {
	queryable
	executable
}

// NewRepository returns a Repository whose statements run on the pool db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db, db}
}

// NewRepositoryTx returns a Repository whose statements run inside tx.
func NewRepositoryTx(tx *sql.Tx) *Repository {
	return &Repository{tx, tx}
}

// CreateRun inserts the run row.
func (r *Repository) CreateRun(ctx context.Context, run models.Run) error {
	ib := sqlFlavor.NewInsertBuilder().InsertInto("casemix_runs").
		Cols("id", "created_at", "billing_file", "hhrg_file", "casemix_file", "providers", "excluded").
		Values(run.ID, run.CreatedAt, run.BillingFile, run.HHRGFile, run.CaseMixFile, run.Providers, run.Excluded)
	query, args := ib.Build()

	_, err := r.ExecContext(ctx, query, args...)
	return err
}

// CreateProviderSummaries inserts summaries under runID, batchSize rows per statement.
// A batchSize that is not positive uses DefaultBatchSize.
func (r *Repository) CreateProviderSummaries(ctx context.Context, runID string, summaries []models.ProviderSummary, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(summaries); start += batchSize {
		end := start + batchSize
		if end > len(summaries) {
			end = len(summaries)
		}

		ib := sqlFlavor.NewInsertBuilder().InsertInto("provider_summaries").Cols(summaryColumns...)
		for _, s := range summaries[start:end] {
			ib.Values(runID, s.ID, s.Name, s.State, s.AvgCost, s.AvgCaseMix, s.TotalEpisodes, s.CostNormalized)
		}
		query, args := ib.Build()

		if _, err := r.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// GetLatestRun returns the most recent run, or nil when none has been recorded.
func (r *Repository) GetLatestRun(ctx context.Context) (*models.Run, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("id", "created_at", "billing_file", "hhrg_file", "casemix_file", "providers", "excluded")
	sb.From("casemix_runs").OrderBy("created_at").Desc().Limit(1)

	query, args := sb.Build()
	var run models.Run
	err := r.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.CreatedAt,
		&run.BillingFile, &run.HHRGFile, &run.CaseMixFile, &run.Providers, &run.Excluded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// GetProviderSummaries returns the summaries of runID ordered by provider identity.
func (r *Repository) GetProviderSummaries(ctx context.Context, runID string) ([]models.ProviderSummary, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select(summaryColumns[1:]...).From("provider_summaries")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("prvdr_id", "prvdr_name", "state")

	query, args := sb.Build()
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.ProviderSummary
	for rows.Next() {
		var s models.ProviderSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.State, &s.AvgCost, &s.AvgCaseMix,
			&s.TotalEpisodes, &s.CostNormalized); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}
