// Package export writes provider summaries to the output formats consumed downstream.
package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/parquet-go/parquet-go"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/casemix/metrics"
	"github.com/CMSgov/casemix-app/casemix/models"
	"github.com/CMSgov/casemix-app/casemix/models/postgres"
)

// Columns of the summary table, in output order.
var Columns = []string{
	constants.ColProviderID,
	constants.ColProviderName,
	constants.ColState,
	"avg_cost",
	"avg_casemix",
	"total_episodes",
	"cost_normalized",
}

// SummaryParquet is the Parquet row layout of a provider summary. An undefined
// cost_normalized is written as null.
type SummaryParquet struct {
	ProviderID     string   `parquet:"prvdr_id"`
	ProviderName   string   `parquet:"prvdr_name"`
	State          string   `parquet:"state"`
	AvgCost        float64  `parquet:"avg_cost"`
	AvgCaseMix     float64  `parquet:"avg_casemix"`
	TotalEpisodes  int64    `parquet:"total_episodes"`
	CostNormalized *float64 `parquet:"cost_normalized,optional"`
}

// Records renders summaries as string rows with a header. Floats use the shortest
// representation that round-trips; an undefined ratio is an empty cell.
func Records(summaries []models.ProviderSummary) [][]string {
	records := make([][]string, 0, len(summaries)+1)
	records = append(records, Columns)
	for _, s := range summaries {
		normalized := ""
		if s.CostNormalized.Valid {
			normalized = formatFloat(s.CostNormalized.Float64)
		}
		records = append(records, []string{
			s.ID,
			s.Name,
			s.State,
			formatFloat(s.AvgCost),
			formatFloat(s.AvgCaseMix),
			strconv.FormatInt(s.TotalEpisodes, 10),
			normalized,
		})
	}
	return records
}

// WriteCSV writes summaries as CSV. Output depends only on the input, so re-runs over
// the same summaries are byte-identical.
func WriteCSV(w io.Writer, summaries []models.ProviderSummary) error {
	records := Records(summaries)
	if len(summaries) == 0 {
		// gota refuses to build a frame without rows
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(records); err != nil {
			return errors.Wrap(err, "failed to write summary header")
		}
		return nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return errors.Wrap(df.Err, "failed to build summary table")
	}
	return errors.Wrap(df.WriteCSV(w), "failed to write summary table")
}

// ToParquet converts summaries to their Parquet rows.
func ToParquet(summaries []models.ProviderSummary) []SummaryParquet {
	rows := make([]SummaryParquet, len(summaries))
	for i, s := range summaries {
		rows[i] = SummaryParquet{
			ProviderID:    s.ID,
			ProviderName:  s.Name,
			State:         s.State,
			AvgCost:       s.AvgCost,
			AvgCaseMix:    s.AvgCaseMix,
			TotalEpisodes: s.TotalEpisodes,
		}
		if s.CostNormalized.Valid {
			v := s.CostNormalized.Float64
			rows[i].CostNormalized = &v
		}
	}
	return rows
}

// WriteParquet writes summaries as a Snappy-compressed Parquet file body.
func WriteParquet(w io.Writer, summaries []models.ProviderSummary) error {
	writer := parquet.NewGenericWriter[SummaryParquet](w,
		parquet.Compression(&parquet.Snappy),
	)
	if _, err := writer.Write(ToParquet(summaries)); err != nil {
		writer.Close()
		return errors.Wrap(err, "failed to write parquet rows")
	}
	return errors.Wrap(writer.Close(), "failed to close parquet writer")
}

// Exporter writes a computed summary table to files and to Postgres. A failed export
// leaves the summaries untouched.
type Exporter struct {
	Logger logrus.FieldLogger
	// BatchSize is the number of summaries per INSERT. Zero uses postgres.DefaultBatchSize.
	BatchSize int
}

// ToCSVFile writes summaries to a CSV file at path, replacing any existing file.
func (e Exporter) ToCSVFile(ctx context.Context, path string, summaries []models.ProviderSummary) error {
	close := metrics.NewChild(ctx, metrics.StageExportCSV)
	defer close()
	return e.toFile(path, "CSV", summaries, WriteCSV)
}

// ToParquetFile writes summaries to a Parquet file at path, replacing any existing file.
func (e Exporter) ToParquetFile(ctx context.Context, path string, summaries []models.ProviderSummary) error {
	close := metrics.NewChild(ctx, metrics.StageExportParquet)
	defer close()
	return e.toFile(path, "Parquet", summaries, WriteParquet)
}

func (e Exporter) toFile(path, format string, summaries []models.ProviderSummary,
	write func(io.Writer, []models.ProviderSummary) error) error {
	f, err := os.Create(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to create %s output %s", format, path)
		e.logger().Error(err)
		return err
	}

	if err = write(f, summaries); err != nil {
		f.Close()
		e.logger().Error(err)
		return err
	}
	if err = f.Close(); err != nil {
		err = errors.Wrapf(err, "failed to close %s output %s", format, path)
		e.logger().Error(err)
		return err
	}

	e.logger().WithFields(logrus.Fields{"path": path, "rows": len(summaries)}).Infof("Wrote %s summary table", format)
	return nil
}

// ToRepository records run and its summaries in a single transaction. The run is
// assigned an ID and creation time when they are not set. The stored run is returned.
func (e Exporter) ToRepository(ctx context.Context, db *sql.DB, run models.Run, summaries []models.ProviderSummary) (stored models.Run, err error) {
	close := metrics.NewChild(ctx, metrics.StageExportPostgres)
	defer close()

	if run.ID == "" {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Providers = len(summaries)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("failed to start transaction: %w", err)
		e.logger().Error(err)
		return models.Run{}, err
	}

	defer func() {
		if err != nil {
			if err1 := tx.Rollback(); err1 != nil {
				e.logger().Warnf("Failed to rollback transaction %s", err.Error())
			}
		}
	}()

	rtx := postgres.NewRepositoryTx(tx)
	if err = rtx.CreateRun(ctx, run); err != nil {
		err = errors.Wrapf(err, "could not create run %s", run.ID)
		e.logger().Error(err)
		return models.Run{}, err
	}
	if err = rtx.CreateProviderSummaries(ctx, run.ID, summaries, e.BatchSize); err != nil {
		err = errors.Wrapf(err, "could not store summaries for run %s", run.ID)
		e.logger().Error(err)
		return models.Run{}, err
	}
	if err = tx.Commit(); err != nil {
		err = errors.Wrapf(err, "could not commit run %s", run.ID)
		e.logger().Error(err)
		return models.Run{}, err
	}

	e.logger().WithFields(logrus.Fields{"run_id": run.ID, "rows": len(summaries)}).Info("Stored summary table")
	return run, nil
}

func (e Exporter) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
