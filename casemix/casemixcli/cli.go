package casemixcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/casemix/database"
	ers "github.com/CMSgov/casemix-app/casemix/errors"
	"github.com/CMSgov/casemix-app/casemix/export"
	"github.com/CMSgov/casemix-app/casemix/loader"
	"github.com/CMSgov/casemix-app/casemix/metric"
	"github.com/CMSgov/casemix-app/casemix/metrics"
	"github.com/CMSgov/casemix-app/casemix/models"
	"github.com/CMSgov/casemix-app/casemix/models/postgres"
	"github.com/CMSgov/casemix-app/casemix/pipeline"
	"github.com/CMSgov/casemix-app/conf"
	"github.com/CMSgov/casemix-app/log"
)

// App Name and usage.  Edit them here to prevent breaking tests
const Name = "casemix"
const Usage = "Home health case-mix reconciliation CLI"

// Flag names shared by several commands
const (
	billingFileArg   = "billing-file"
	hhrgFileArg      = "hhrg-file"
	casemixFileArg   = "casemix-file"
	noShapeCheckArg  = "no-shape-check"
	s3EndpointArg    = "s3-endpoint"
	assumeRoleArnArg = "assume-role-arn"
)

// inputs holds the flag values every pipeline command reads. Defaults come from conf.
type inputs struct {
	billingFile, hhrgFile, casemixFile string
	noShapeCheck                       bool
	s3Endpoint, assumeRoleArn          string
}

func (in *inputs) flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:        billingFileArg,
			Usage:       "Provider-by-service CSV (local path or s3:// URI)",
			Value:       conf.GetEnv("CASEMIX_BILLING_FILE"),
			Destination: &in.billingFile,
		},
		cli.StringFlag{
			Name:        hhrgFileArg,
			Usage:       "HHRG spreadsheet (local path or s3:// URI)",
			Value:       conf.GetEnv("CASEMIX_HHRG_FILE"),
			Destination: &in.hhrgFile,
		},
		cli.StringFlag{
			Name:        casemixFileArg,
			Usage:       "Case-mix weight spreadsheet (local path or s3:// URI)",
			Value:       conf.GetEnv("CASEMIX_CASEMIX_FILE"),
			Destination: &in.casemixFile,
		},
		cli.BoolFlag{
			Name:        noShapeCheckArg,
			Usage:       "Skip the table dimension checks",
			Destination: &in.noShapeCheck,
		},
		cli.StringFlag{
			Name:        s3EndpointArg,
			Usage:       "Custom S3 endpoint",
			Value:       conf.GetEnv("CASEMIX_S3_ENDPOINT"),
			Destination: &in.s3Endpoint,
		},
		cli.StringFlag{
			Name:        assumeRoleArnArg,
			Usage:       "Role to assume when reading from S3",
			Value:       conf.GetEnv("CASEMIX_S3_ASSUME_ROLE_ARN"),
			Destination: &in.assumeRoleArn,
		},
	}
}

func (in *inputs) config() (pipeline.Config, error) {
	cfg := pipeline.Config{
		Inputs: pipeline.Inputs{
			BillingFile: in.billingFile,
			HHRGFile:    in.hhrgFile,
			CaseMixFile: in.casemixFile,
		},
		Logger:       log.Pipeline,
		LoaderLogger: log.Loader,
		Files:        loader.NewFileProcessor(log.Loader, in.s3Endpoint, in.assumeRoleArn),
	}
	if in.noShapeCheck {
		return cfg, nil
	}
	shapes, err := pipeline.ShapesFromEnv()
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg.Shapes = shapes
	return cfg, nil
}

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = Name
	app.Usage = Usage
	app.Version = constants.Version

	var in inputs
	var csvOut, parquetOut, state, rankBy string
	var store, fromDB bool
	var top int

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "Compute the provider summary table and export it",
			Flags: append(in.flags(),
				cli.StringFlag{
					Name:        "csv-out",
					Usage:       "Write the summary table as CSV to this path",
					Destination: &csvOut,
				},
				cli.StringFlag{
					Name:        "parquet-out",
					Usage:       "Write the summary table as Parquet to this path",
					Destination: &parquetOut,
				},
				cli.BoolFlag{
					Name:        "store",
					Usage:       "Store the run and its summaries in DATABASE_URL",
					Destination: &store,
				},
			),
			Action: func(c *cli.Context) error {
				ctx, closeTimer := newContext()
				defer closeTimer()

				cfg, err := in.config()
				if err != nil {
					return err
				}
				res, err := pipeline.Run(ctx, cfg)
				if err != nil {
					return describe(err)
				}

				exporter := export.Exporter{Logger: log.Export}
				if csvOut != "" {
					if err = exporter.ToCSVFile(ctx, csvOut, res.Summaries); err != nil {
						return err
					}
				}
				if parquetOut != "" {
					if err = exporter.ToParquetFile(ctx, parquetOut, res.Summaries); err != nil {
						return err
					}
				}
				if store {
					run, err := storeRun(ctx, exporter, cfg.Inputs, res)
					if err != nil {
						return err
					}
					fmt.Fprintf(app.Writer, "Stored run %s\n", run.ID)
				}
				if csvOut == "" && parquetOut == "" && !store {
					// Nothing else requested; the table itself is the output
					return export.WriteCSV(app.Writer, res.Summaries)
				}

				fmt.Fprintf(app.Writer, "Completed case-mix run. Providers: %d. Excluded with zero episodes: %d.\n",
					len(res.Summaries), len(res.Excluded))
				return nil
			},
		},
		{
			Name:  "validate",
			Usage: "Load, normalize and join the inputs without aggregating",
			Flags: in.flags(),
			Action: func(c *cli.Context) error {
				ctx, closeTimer := newContext()
				defer closeTimer()

				cfg, err := in.config()
				if err != nil {
					return err
				}
				v, err := pipeline.Validate(ctx, cfg)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(app.Writer, "Inputs are valid. Billing records: %d. Case-mix weights: %d. Joined records: %d.\n",
					v.BillingRecords, v.Weights, v.Enriched)
				return nil
			},
		},
		{
			Name:  "top-providers",
			Usage: "List the highest cost providers in a state",
			Flags: append(in.flags(),
				cli.StringFlag{
					Name:        "state",
					Usage:       "Two letter state code",
					Destination: &state,
				},
				cli.IntFlag{
					Name:        "n",
					Usage:       "Number of providers to list, 0 for all",
					Value:       10,
					Destination: &top,
				},
				cli.StringFlag{
					Name:        "by",
					Usage:       "Ranking column: cost_normalized or avg_cost",
					Value:       metric.ByCostNormalized.String(),
					Destination: &rankBy,
				},
				cli.BoolFlag{
					Name:        "from-db",
					Usage:       "Rank the latest stored run instead of recomputing",
					Destination: &fromDB,
				},
			),
			Action: func(c *cli.Context) error {
				if state == "" {
					return errors.New("state is required")
				}
				by, err := metric.ParseRankBy(rankBy)
				if err != nil {
					return err
				}

				ctx, closeTimer := newContext()
				defer closeTimer()

				var summaries []models.ProviderSummary
				if fromDB {
					summaries, err = latestSummaries(ctx)
				} else {
					summaries, err = computeSummaries(ctx, &in)
				}
				if err != nil {
					return err
				}

				ranked := metric.TopByState(summaries, strings.ToUpper(state), top, by)
				return writeRanking(app.Writer, ranked)
			},
		},
		{
			Name:  "national-totals",
			Usage: "Compare national home health totals across the billing tables",
			Flags: in.flags(),
			Action: func(c *cli.Context) error {
				ctx, closeTimer := newContext()
				defer closeTimer()

				cfg, err := in.config()
				if err != nil {
					return err
				}
				national, err := pipeline.NationalTotals(ctx, cfg)
				if err != nil {
					return describe(err)
				}
				return national.Write(app.Writer, language.AmericanEnglish)
			},
		},
	}
	return app
}

func newContext() (context.Context, func()) {
	t := metrics.GetTimer()
	return metrics.NewContext(context.Background(), t), t.Close
}

func computeSummaries(ctx context.Context, in *inputs) ([]models.ProviderSummary, error) {
	cfg, err := in.config()
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return nil, describe(err)
	}
	return res.Summaries, nil
}

func latestSummaries(ctx context.Context) ([]models.ProviderSummary, error) {
	dbCfg, err := database.LoadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := postgres.NewRepository(db)
	run, err := repo.GetLatestRun(ctx)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, errors.New("no stored runs found")
	}
	return repo.GetProviderSummaries(ctx, run.ID)
}

func storeRun(ctx context.Context, exporter export.Exporter, in pipeline.Inputs, res *pipeline.Result) (models.Run, error) {
	dbCfg, err := database.LoadConfig()
	if err != nil {
		return models.Run{}, err
	}
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return models.Run{}, err
	}
	defer db.Close()

	if err = database.Migrate(ctx, db); err != nil {
		return models.Run{}, err
	}
	exporter.BatchSize = dbCfg.BatchSize
	return exporter.ToRepository(ctx, db, models.Run{
		BillingFile: in.BillingFile,
		HHRGFile:    in.HHRGFile,
		CaseMixFile: in.CaseMixFile,
		Excluded:    len(res.Excluded),
	}, res.Summaries)
}

func writeRanking(w io.Writer, summaries []models.ProviderSummary) error {
	p := message.NewPrinter(language.AmericanEnglish)
	if _, err := p.Fprintf(w, "%-10s %-40s %-5s %14s %11s %10s %15s\n",
		"PRVDR_ID", "NAME", "STATE", "AVG_COST", "AVG_CASEMIX", "EPISODES", "COST_NORMALIZED"); err != nil {
		return err
	}
	for _, s := range summaries {
		normalized := "undefined"
		if s.CostNormalized.Valid {
			normalized = p.Sprintf("%.2f", s.CostNormalized.Float64)
		}
		if _, err := p.Fprintf(w, "%-10s %-40s %-5s %14.2f %11.4f %10d %15s\n",
			s.ID, s.Name, s.State, s.AvgCost, s.AvgCaseMix, s.TotalEpisodes, normalized); err != nil {
			return err
		}
	}
	return nil
}

// describe adds the offending table or keys to pipeline failures for the operator.
func describe(err error) error {
	var (
		se *ers.ShapeMismatchError
		ue *ers.UnmatchedKeyError
		ie *ers.IntegrityError
		ne *ers.NormalizationError
	)
	switch {
	case errors.As(err, &se):
		return fmt.Errorf("%w (use --%s to skip dimension checks)", err, noShapeCheckArg)
	case errors.As(err, &ue), errors.As(err, &ie), errors.As(err, &ne):
		return fmt.Errorf("no summaries produced: %w", err)
	}
	return err
}
