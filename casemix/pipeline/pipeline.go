// Package pipeline runs the case-mix reconciliation end to end: load, normalize, join,
// aggregate and derive. Every stage failure is fatal and no partial output is returned.
package pipeline

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/casemix/aggregate"
	"github.com/CMSgov/casemix-app/casemix/join"
	"github.com/CMSgov/casemix-app/casemix/loader"
	"github.com/CMSgov/casemix-app/casemix/metric"
	"github.com/CMSgov/casemix-app/casemix/metrics"
	"github.com/CMSgov/casemix-app/casemix/models"
	"github.com/CMSgov/casemix-app/casemix/normalize"
	"github.com/CMSgov/casemix-app/casemix/profile"
)

// Result is the outcome of a full run.
type Result struct {
	Summaries []models.ProviderSummary
	Excluded  []models.ProviderIdentity
	// National is nil when no provider-by-service table was given.
	National *profile.NationalTotals

	BillingRecords int
	Weights        int
}

// Validation describes inputs that loaded, normalized and joined cleanly.
type Validation struct {
	BillingRecords int
	Weights        int
	Enriched       int
}

type runner struct {
	cfg    Config
	logger logrus.FieldLogger
	loader *loader.Loader
}

func newRunner(cfg Config) (*runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	loaderLogger := cfg.LoaderLogger
	if loaderLogger == nil {
		loaderLogger = logger
	}
	files := cfg.Files
	if files == nil {
		files = loader.NewFileProcessor(loaderLogger, "", "")
	}
	return &runner{cfg: cfg, logger: logger, loader: loader.New(loaderLogger, files)}, nil
}

// Run computes the provider summary table for cfg.Inputs.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	r, err := newRunner(cfg)
	if err != nil {
		return nil, err
	}

	ctx, close := metrics.NewParent(ctx, metrics.StagePipeline)
	defer close()

	billing, enriched, weights, err := r.enrich(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{BillingRecords: len(billing), Weights: weights}
	if r.cfg.BillingFile != "" {
		services, err := r.loader.LoadServiceSummaries(ctx, r.cfg.BillingFile, r.cfg.Shapes.Billing)
		if err != nil {
			r.logger.Error(err)
			return nil, err
		}
		national := profile.National(services, billing)
		national.Log(r.logger)
		res.National = &national
	} else {
		r.logger.Info("No provider-by-service table configured, skipping national profile")
	}

	closeAggregate := metrics.NewChild(ctx, metrics.StageAggregate)
	agg := aggregate.Aggregator{Logger: r.logger}.ByProvider(enriched)
	closeAggregate()

	closeDerive := metrics.NewChild(ctx, metrics.StageDerive)
	res.Summaries = metric.Derive(agg.Summaries)
	closeDerive()
	res.Excluded = agg.Excluded

	r.logger.WithFields(logrus.Fields{
		"providers": len(res.Summaries),
		"excluded":  len(res.Excluded),
	}).Info("Completed case-mix pipeline")
	return res, nil
}

// Validate loads, normalizes and joins the HHRG and case-mix tables and checks the
// provider grain without aggregating.
func Validate(ctx context.Context, cfg Config) (*Validation, error) {
	r, err := newRunner(cfg)
	if err != nil {
		return nil, err
	}

	ctx, close := metrics.NewParent(ctx, metrics.StageValidate)
	defer close()

	billing, enriched, weights, err := r.enrich(ctx)
	if err != nil {
		return nil, err
	}
	return &Validation{BillingRecords: len(billing), Weights: weights, Enriched: len(enriched)}, nil
}

// NationalTotals compares the provider-by-service and HHRG national totals. No keys are
// normalized, so it runs on tables the full pipeline would reject.
func NationalTotals(ctx context.Context, cfg Config) (*profile.NationalTotals, error) {
	if cfg.BillingFile == "" {
		return nil, errors.New("invalid config, BillingFile must be set")
	}
	r, err := newRunner(cfg)
	if err != nil {
		return nil, err
	}

	ctx, close := metrics.NewParent(ctx, metrics.StageNationalTotals)
	defer close()

	services, err := r.loader.LoadServiceSummaries(ctx, cfg.BillingFile, cfg.Shapes.Billing)
	if err != nil {
		r.logger.Error(err)
		return nil, err
	}
	billing, err := r.loader.LoadBillingRecords(ctx, cfg.HHRGFile, cfg.Shapes.HHRG)
	if err != nil {
		r.logger.Error(err)
		return nil, err
	}

	national := profile.National(services, billing)
	national.Log(r.logger)
	return &national, nil
}

func (r *runner) enrich(ctx context.Context) (billing []models.BillingRecord, enriched []models.EnrichedRecord, weights int, err error) {
	defer func() {
		if err != nil {
			r.logger.Error(err)
		}
	}()

	billing, err = r.loader.LoadBillingRecords(ctx, r.cfg.HHRGFile, r.cfg.Shapes.HHRG)
	if err != nil {
		return nil, nil, 0, err
	}
	raw, err := r.loader.LoadCaseMixWeights(ctx, r.cfg.CaseMixFile, r.cfg.Shapes.CaseMix)
	if err != nil {
		return nil, nil, 0, err
	}

	closeNormalize := metrics.NewChild(ctx, metrics.StageNormalize)
	billing, err = normalize.NormalizeBilling(billing)
	if err != nil {
		closeNormalize()
		return nil, nil, 0, err
	}
	normalized, err := normalize.NormalizeWeights(raw)
	closeNormalize()
	if err != nil {
		return nil, nil, 0, err
	}
	r.logger.WithFields(logrus.Fields{
		"billing_records": len(billing), "weights": len(normalized),
	}).Info("Normalized categorical keys")

	closeJoin := metrics.NewChild(ctx, metrics.StageJoin)
	defer closeJoin()

	idx, err := join.IndexWeights(normalized)
	if err != nil {
		return nil, nil, 0, err
	}
	if err = join.ValidateProviderGrain(billing); err != nil {
		return nil, nil, 0, err
	}
	enriched, err = join.Join(billing, idx)
	if err != nil {
		return nil, nil, 0, err
	}
	r.logger.WithFields(logrus.Fields{
		"enriched": len(enriched), "weights": idx.Len(),
	}).Info("Joined billing records with case-mix weights")
	return billing, enriched, len(normalized), nil
}
