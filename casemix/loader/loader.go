// Package loader reads the three input tables (provider-by-service CSV, HHRG spreadsheet and
// case-mix weight spreadsheet) into models, validating their shape on the way in.
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/casemix/metrics"
	"github.com/CMSgov/casemix-app/casemix/models"
)

// Loader reads the billing, HHRG and case-mix tables into typed records.
type Loader struct {
	Logger logrus.FieldLogger
	Files  FileProcessor

	// Half-open column range of the HHRG table whose values are stripped of currency
	// formatting. The range is clamped to the table width.
	CurrencyStart int
	CurrencyEnd   int
}

// New returns a Loader using the default HHRG currency column range.
func New(logger logrus.FieldLogger, files FileProcessor) *Loader {
	return &Loader{
		Logger:        logger,
		Files:         files,
		CurrencyStart: constants.HHRGCurrencyStart,
		CurrencyEnd:   constants.HHRGCurrencyEnd,
	}
}

// LoadServiceSummaries reads the provider-by-service CSV.
func (l *Loader) LoadServiceSummaries(ctx context.Context, path string, shape Shape) ([]models.ServiceSummary, error) {
	close := metrics.NewChild(ctx, metrics.StageLoadServiceSummaries)
	defer close()

	r, closeFile, err := l.Files.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	df := readCSV(r)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to read %s table from %s", constants.TableBilling, path)
	}
	if err := l.checkTable(df, constants.TableBilling, shape,
		constants.ColProviderID, constants.ColSummaryCategory, constants.ColServiceCategory,
		constants.ColBeneficiaries, constants.ColEpisodes); err != nil {
		return nil, err
	}

	records := df.Records()
	return toServiceSummaries(records[0], records[1:])
}

// LoadBillingRecords reads the HHRG spreadsheet. Values in the currency column range have '$' and ','
// removed; a column in that range whose values are not all numeric is kept as text.
func (l *Loader) LoadBillingRecords(ctx context.Context, path string, shape Shape) ([]models.BillingRecord, error) {
	close := metrics.NewChild(ctx, metrics.StageLoadBillingRecords)
	defer close()

	rows, err := l.readSheet(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s table from %s", constants.TableHHRG, path)
	}

	types := l.coerceCurrency(rows)
	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nanValues),
		dataframe.WithTypes(types))
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to load %s table from %s", constants.TableHHRG, path)
	}
	if err := l.checkTable(df, constants.TableHHRG, shape,
		constants.ColProviderID, constants.ColProviderName, constants.ColState,
		constants.ColSummaryCategory, constants.ColGrouping, constants.ColGroupingDesc,
		constants.ColEpisodes, constants.ColAvgCharge); err != nil {
		return nil, err
	}

	records := df.Records()
	return toBillingRecords(records[0], records[1:])
}

// LoadCaseMixWeights reads the case-mix weight spreadsheet, keeping only the current year's weight
// under the casemix_2014 column.
func (l *Loader) LoadCaseMixWeights(ctx context.Context, path string, shape Shape) ([]models.CaseMixWeight, error) {
	close := metrics.NewChild(ctx, metrics.StageLoadCaseMixWeights)
	defer close()

	rows, err := l.readSheet(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s table from %s", constants.TableCaseMix, path)
	}

	df := dataframe.LoadRecords(rows, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to load %s table from %s", constants.TableCaseMix, path)
	}
	if err := requireColumns(df, constants.ColPriorWeight, constants.ColCurrentWeight); err != nil {
		return nil, errors.Wrapf(err, "%s table is not valid", constants.TableCaseMix)
	}
	df = df.Drop(constants.ColPriorWeight).
		Rename(constants.ColCaseMixWeight, constants.ColCurrentWeight)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to reshape %s table", constants.TableCaseMix)
	}
	if err := l.checkTable(df, constants.TableCaseMix, shape,
		constants.ColPaymentGroup, constants.ColDescription, constants.ColLevels,
		constants.ColCaseMixWeight); err != nil {
		return nil, err
	}

	records := df.Records()
	return toCaseMixWeights(records[0], records[1:])
}

func (l *Loader) readSheet(ctx context.Context, path string) ([][]string, error) {
	r, closeFile, err := l.Files.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closeFile()
	return readSheet(r)
}

func (l *Loader) checkTable(df dataframe.DataFrame, table string, shape Shape, required ...string) error {
	rows, cols := df.Dims()
	l.Logger.WithFields(logrus.Fields{"table": table, "rows": rows, "cols": cols}).Info("Loaded table")

	if err := requireColumns(df, required...); err != nil {
		return errors.Wrapf(err, "%s table is not valid", table)
	}
	return shape.check(table, rows, cols)
}

// coerceCurrency strips currency formatting from the configured column range in place and
// returns the columns that can be treated as numeric.
func (l *Loader) coerceCurrency(rows [][]string) map[string]series.Type {
	types := make(map[string]series.Type)
	if len(rows) == 0 {
		return types
	}

	header := rows[0]
	start, end := clamp(l.CurrencyStart, 0, len(header)), clamp(l.CurrencyEnd, 0, len(header))
	for col := start; col < end; col++ {
		numeric := true
		var bad string
		for _, row := range rows[1:] {
			row[col] = strings.TrimSpace(currencyReplacer.Replace(row[col]))
			if _, _, err := parseDecimal(row[col]); err != nil && numeric {
				numeric, bad = false, row[col]
			}
		}

		if numeric {
			types[header[col]] = series.Float
			continue
		}
		l.Logger.WithFields(logrus.Fields{
			"table": constants.TableHHRG, "column": header[col], "value": bad,
		}).Warn("Column in currency range is not numeric; keeping it as text")
	}
	return types
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rowError reports a value that cannot be read on a 1-based data row.
func rowError(table string, row int, column, value string, cause error) error {
	return fmt.Errorf("%s row %d: invalid %s '%s': %w", table, row, column, value, cause)
}
