// Package normalize maps the differently encoded resource group descriptors of the HHRG and
// case-mix weight tables onto a shared models.CanonicalKey.
package normalize

import (
	"strconv"
	"strings"

	"github.com/CMSgov/casemix-app/casemix/constants"
	ers "github.com/CMSgov/casemix-app/casemix/errors"
	"github.com/CMSgov/casemix-app/casemix/models"
)

const (
	descriptorDelimiter = ","
	billingFieldCount   = 5
	weightFieldCount    = 2
)

// ParseBillingDescriptor parses a Grpng_Desc value such as
// "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1,".
// Trailing delimiters are stripped before splitting.
func ParseBillingDescriptor(desc string) (models.CanonicalKey, error) {
	fail := func(field, value string) (models.CanonicalKey, error) {
		return models.CanonicalKey{}, &ers.NormalizationError{
			Source: constants.TableHHRG, Field: field, Value: value, Descriptor: desc, Records: 1}
	}

	trimmed := strings.TrimRight(strings.TrimSpace(desc), descriptorDelimiter)
	fields := strings.Split(trimmed, descriptorDelimiter)
	if len(fields) != billingFieldCount {
		return fail(fieldCount, strconv.Itoa(len(fields)))
	}

	var (
		key models.CanonicalKey
		ok  bool
	)
	if key.Episode, ok = lookupEpisode(billingEpisodes, fields[0]); !ok {
		return fail(fieldEpisode, strings.TrimSpace(fields[0]))
	}
	if key.Therapy, ok = lookupTherapy(billingTherapies, fields[1]); !ok {
		return fail(fieldTherapy, strings.TrimSpace(fields[1]))
	}
	levels := []struct {
		dim models.SeverityDimension
		dst *uint8
	}{
		{models.Clinical, &key.Clinical},
		{models.Functional, &key.Functional},
		{models.Service, &key.Service},
	}
	for i, l := range levels {
		token := fields[2+i]
		if *l.dst, ok = parseSeverityLabel(l.dim, token); !ok {
			return fail(severityField(l.dim), strings.TrimSpace(token))
		}
	}
	return key, nil
}

// ParseWeightDescription parses the case-mix table pair of a Description value such as
// "1st and 2nd Episodes, 0 to 5 Therapy Visits" and a level code such as "C1F1S1".
func ParseWeightDescription(desc, levels string) (models.CanonicalKey, error) {
	fail := func(field, value string) (models.CanonicalKey, error) {
		return models.CanonicalKey{}, &ers.NormalizationError{
			Source: constants.TableCaseMix, Field: field, Value: value,
			Descriptor: desc + " | " + levels, Records: 1}
	}

	fields := strings.Split(desc, descriptorDelimiter)
	if len(fields) != weightFieldCount {
		return fail(fieldCount, strconv.Itoa(len(fields)))
	}

	var (
		key models.CanonicalKey
		ok  bool
	)
	if key.Episode, ok = lookupEpisode(weightEpisodes, fields[0]); !ok {
		return fail(fieldEpisode, strings.TrimSpace(fields[0]))
	}
	if key.Therapy, ok = lookupTherapy(weightTherapies, fields[1]); !ok {
		return fail(fieldTherapy, strings.TrimSpace(fields[1]))
	}

	sc, err := ParseSeverityCode(levels)
	if err != nil {
		se := err.(*slotError)
		return fail(se.field, se.value)
	}
	key.Clinical, key.Functional, key.Service = sc.Clinical, sc.Functional, sc.Service
	return key, nil
}

// NormalizeBilling returns a copy of records with Key set. Each distinct descriptor is parsed once.
func NormalizeBilling(records []models.BillingRecord) ([]models.BillingRecord, error) {
	keys := make(map[string]models.CanonicalKey)
	out := make([]models.BillingRecord, len(records))
	for i, r := range records {
		key, seen := keys[r.GroupingDesc]
		if !seen {
			var err error
			if key, err = ParseBillingDescriptor(r.GroupingDesc); err != nil {
				return nil, withRecordCount(err, countBilling(records, r.GroupingDesc))
			}
			keys[r.GroupingDesc] = key
		}
		r.Key = key
		out[i] = r
	}
	return out, nil
}

// NormalizeWeights returns a copy of weights with Key set.
func NormalizeWeights(weights []models.CaseMixWeight) ([]models.CaseMixWeight, error) {
	out := make([]models.CaseMixWeight, len(weights))
	for i, w := range weights {
		key, err := ParseWeightDescription(w.Description, w.LevelCode)
		if err != nil {
			return nil, withRecordCount(err, countWeights(weights, w))
		}
		w.Key = key
		out[i] = w
	}
	return out, nil
}

func withRecordCount(err error, n int) error {
	if ne, ok := err.(*ers.NormalizationError); ok {
		ne.Records = n
	}
	return err
}

func countBilling(records []models.BillingRecord, desc string) int {
	n := 0
	for _, r := range records {
		if r.GroupingDesc == desc {
			n++
		}
	}
	return n
}

func countWeights(weights []models.CaseMixWeight, target models.CaseMixWeight) int {
	n := 0
	for _, w := range weights {
		if w.Description == target.Description && w.LevelCode == target.LevelCode {
			n++
		}
	}
	return n
}
