package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Markers for values that were not reported ("NA") or were redacted ("*").
var nanValues = []string{"NA", "*"}

// nanRecord is how gota renders a missing value in Records().
const nanRecord = "NaN"

func readCSV(r io.Reader) dataframe.DataFrame {
	// Trim the Byte Order Marker if it's present
	// See: https://github.com/golang/go/issues/33887
	reader := utfbom.SkipOnly(r)
	return dataframe.ReadCSV(reader,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nanValues))
}

// readSheet returns the cells of the first worksheet, header row first. Short rows are padded
// to the header width.
func readSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no worksheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read worksheet %s", sheets[0])
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("worksheet %s is empty", sheets[0])
	}

	width := len(rows[0])
	for i, row := range rows {
		switch {
		case len(row) < width:
			rows[i] = append(row, make([]string, width-len(row))...)
		case len(row) > width:
			return nil, errors.Errorf("worksheet %s row %d has %d cells, header has %d", sheets[0], i+1, len(row), width)
		}
	}
	return rows, nil
}

func requireColumns(df dataframe.DataFrame, columns ...string) error {
	m := make(map[string]struct{}, df.Ncol())
	for _, name := range df.Names() {
		m[name] = struct{}{}
	}

	for _, required := range columns {
		if _, ok := m[required]; !ok {
			return fmt.Errorf("required field '%s' not found", required)
		}
	}
	return nil
}

func isMissing(v string) bool {
	if v == "" || v == nanRecord {
		return true
	}
	for _, nan := range nanValues {
		if v == nan {
			return true
		}
	}
	return false
}

var currencyReplacer = strings.NewReplacer("$", "", ",", "")

// parseDecimal reads a number that may carry currency formatting. ok is false for missing values.
func parseDecimal(v string) (d decimal.Decimal, ok bool, err error) {
	v = strings.TrimSpace(currencyReplacer.Replace(v))
	if isMissing(v) {
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// parseCount reads a non-negative whole number.
func parseCount(v string) (n int64, ok bool, err error) {
	d, ok, err := parseDecimal(v)
	if err != nil || !ok {
		return 0, ok, err
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, false, fmt.Errorf("'%s' is not a non-negative whole number", v)
	}
	return d.IntPart(), true, nil
}

// parseAmount reads a non-negative amount.
func parseAmount(v string) (f float64, ok bool, err error) {
	d, ok, err := parseDecimal(v)
	if err != nil || !ok {
		return 0, ok, err
	}
	if d.IsNegative() {
		return 0, false, fmt.Errorf("'%s' is negative", v)
	}
	f, _ = d.Float64()
	return f, true, nil
}
