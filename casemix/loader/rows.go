package loader

import (
	"database/sql"
	"fmt"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/casemix/models"
)

// Wrap the models so setters can build them incrementally from a row of cells.
type hhrgRow struct {
	models.BillingRecord
}

func (r *hhrgRow) setEpisodes(v string) error {
	n, ok, err := parseCount(v)
	if err == nil && !ok {
		err = fmt.Errorf("value is missing")
	}
	r.Episodes = n
	return err
}

func (r *hhrgRow) setAvgCharge(v string) error {
	f, ok, err := parseAmount(v)
	if err == nil && !ok {
		err = fmt.Errorf("value is missing")
	}
	r.AvgCharge = f
	return err
}

func (r *hhrgRow) setServiceCategory(v string) (err error) {
	r.ServiceCategory, err = models.ParseServiceCategory(v)
	return err
}

type serviceRow struct {
	models.ServiceSummary
}

func (r *serviceRow) setServiceCategory(v string) (err error) {
	r.ServiceCategory, err = models.ParseServiceCategory(v)
	return err
}

func (r *serviceRow) setBeneficiaries(v string) (err error) {
	r.Beneficiaries, err = nullCount(v)
	return err
}

func (r *serviceRow) setEpisodes(v string) (err error) {
	r.Episodes, err = nullCount(v)
	return err
}

type weightRow struct {
	models.CaseMixWeight
}

func (r *weightRow) setWeight(v string) error {
	d, ok, err := parseDecimal(v)
	if err == nil && !ok {
		err = fmt.Errorf("value is missing")
	}
	r.Weight, _ = d.Float64()
	return err
}

func nullCount(v string) (sql.NullInt64, error) {
	n, ok, err := parseCount(v)
	if err != nil || !ok {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

// text drops gota's rendering of a missing value.
func text(v string) string {
	if v == nanRecord {
		return ""
	}
	return v
}

type setter[T any] func(row *T, value string) error

func setText[T any](set func(*T, string)) setter[T] {
	return func(row *T, v string) error {
		set(row, text(v))
		return nil
	}
}

// Returns a map that links column position with the method that should be
// used to populate an HHRG row
func getHHRGSetters(headers []string) map[int]setter[hhrgRow] {
	setters := make(map[int]setter[hhrgRow])
	for idx, header := range headers {
		switch header {
		case constants.ColProviderID:
			setters[idx] = setText(func(r *hhrgRow, v string) { r.ProviderID = v })
		case constants.ColProviderName:
			setters[idx] = setText(func(r *hhrgRow, v string) { r.ProviderName = v })
		case constants.ColState:
			setters[idx] = setText(func(r *hhrgRow, v string) { r.State = v })
		case constants.ColSummaryCategory:
			setters[idx] = setText(func(r *hhrgRow, v string) { r.SummaryCategory = v })
		case constants.ColServiceCategory:
			setters[idx] = (*hhrgRow).setServiceCategory
		case constants.ColGrouping:
			setters[idx] = setText(func(r *hhrgRow, v string) { r.Grouping = v })
		case constants.ColGroupingDesc:
			setters[idx] = setText(func(r *hhrgRow, v string) { r.GroupingDesc = v })
		case constants.ColEpisodes:
			setters[idx] = (*hhrgRow).setEpisodes
		case constants.ColAvgCharge:
			setters[idx] = (*hhrgRow).setAvgCharge
		}
	}
	return setters
}

func getServiceSetters(headers []string) map[int]setter[serviceRow] {
	setters := make(map[int]setter[serviceRow])
	for idx, header := range headers {
		switch header {
		case constants.ColProviderID:
			setters[idx] = setText(func(r *serviceRow, v string) { r.ProviderID = v })
		case constants.ColSummaryCategory:
			setters[idx] = setText(func(r *serviceRow, v string) { r.SummaryCategory = v })
		case constants.ColServiceCategory:
			setters[idx] = (*serviceRow).setServiceCategory
		case constants.ColBeneficiaries:
			setters[idx] = (*serviceRow).setBeneficiaries
		case constants.ColEpisodes:
			setters[idx] = (*serviceRow).setEpisodes
		}
	}
	return setters
}

func getWeightSetters(headers []string) map[int]setter[weightRow] {
	setters := make(map[int]setter[weightRow])
	for idx, header := range headers {
		switch header {
		case constants.ColPaymentGroup:
			setters[idx] = setText(func(r *weightRow, v string) { r.PaymentGroup = v })
		case constants.ColDescription:
			setters[idx] = setText(func(r *weightRow, v string) { r.Description = v })
		case constants.ColLevels:
			setters[idx] = setText(func(r *weightRow, v string) { r.LevelCode = v })
		case constants.ColCaseMixWeight:
			setters[idx] = (*weightRow).setWeight
		}
	}
	return setters
}

// applySetters fills row from cells. Columns without a setter are ignored.
func applySetters[T any](table string, rowNum int, headers, cells []string, setters map[int]setter[T], row *T) error {
	for idx, val := range cells {
		set := setters[idx]
		if set == nil {
			continue
		}
		if err := set(row, val); err != nil {
			return rowError(table, rowNum, headers[idx], val, err)
		}
	}
	return nil
}

func toBillingRecords(headers []string, rows [][]string) ([]models.BillingRecord, error) {
	setters := getHHRGSetters(headers)
	records := make([]models.BillingRecord, 0, len(rows))
	for i, cells := range rows {
		r := &hhrgRow{}
		r.Row = i + 1
		// The HHRG file only covers home health agencies.
		r.ServiceCategory = models.ServiceHomeHealth
		if err := applySetters(constants.TableHHRG, r.Row, headers, cells, setters, r); err != nil {
			return nil, err
		}
		records = append(records, r.BillingRecord)
	}
	return records, nil
}

func toServiceSummaries(headers []string, rows [][]string) ([]models.ServiceSummary, error) {
	setters := getServiceSetters(headers)
	summaries := make([]models.ServiceSummary, 0, len(rows))
	for i, cells := range rows {
		r := &serviceRow{}
		if err := applySetters(constants.TableBilling, i+1, headers, cells, setters, r); err != nil {
			return nil, err
		}
		summaries = append(summaries, r.ServiceSummary)
	}
	return summaries, nil
}

func toCaseMixWeights(headers []string, rows [][]string) ([]models.CaseMixWeight, error) {
	setters := getWeightSetters(headers)
	weights := make([]models.CaseMixWeight, 0, len(rows))
	for i, cells := range rows {
		r := &weightRow{}
		r.Row = i + 1
		if err := applySetters(constants.TableCaseMix, r.Row, headers, cells, setters, r); err != nil {
			return nil, err
		}
		weights = append(weights, r.CaseMixWeight)
	}
	return weights, nil
}
