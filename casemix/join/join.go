// Package join attaches case-mix weights to HHRG billing records. The join is many (billing) to
// one (weight) and strict: duplicate weights and unmatched billing keys are both fatal.
package join

import (
	"fmt"
	"sort"

	"github.com/CMSgov/casemix-app/casemix/constants"
	ers "github.com/CMSgov/casemix-app/casemix/errors"
	"github.com/CMSgov/casemix-app/casemix/models"
)

// WeightIndex is a case-mix weight table validated as injective on CanonicalKey.
type WeightIndex struct {
	weights map[models.CanonicalKey]models.CaseMixWeight
}

// Len returns the number of distinct keys in the index.
func (idx WeightIndex) Len() int {
	return len(idx.weights)
}

// Lookup returns the weight for key.
func (idx WeightIndex) Lookup(key models.CanonicalKey) (models.CaseMixWeight, bool) {
	w, ok := idx.weights[key]
	return w, ok
}

// IndexWeights builds a WeightIndex. Every duplicated key is reported in a single IntegrityError.
func IndexWeights(weights []models.CaseMixWeight) (WeightIndex, error) {
	idx := make(map[models.CanonicalKey]models.CaseMixWeight, len(weights))
	counts := make(map[models.CanonicalKey]int, len(weights))
	for _, w := range weights {
		counts[w.Key]++
		if _, ok := idx[w.Key]; !ok {
			idx[w.Key] = w
		}
	}

	var dups []models.CanonicalKey
	records := 0
	for key, n := range counts {
		if n > 1 {
			dups = append(dups, key)
			records += n
		}
	}
	if len(dups) > 0 {
		return WeightIndex{}, &ers.IntegrityError{
			Table:   constants.TableCaseMix,
			Keys:    keyStrings(dups, counts),
			Records: records,
		}
	}

	return WeightIndex{weights: idx}, nil
}

// Join pairs every billing record with exactly one weight. The result has the same length and
// order as records. When any key is missing, no records are returned.
func Join(records []models.BillingRecord, idx WeightIndex) ([]models.EnrichedRecord, error) {
	enriched := make([]models.EnrichedRecord, 0, len(records))
	missing := make(map[models.CanonicalKey]int)
	unmatched := 0

	for _, r := range records {
		w, ok := idx.Lookup(r.Key)
		if !ok {
			missing[r.Key]++
			unmatched++
			continue
		}
		enriched = append(enriched, models.EnrichedRecord{BillingRecord: r, Weight: w})
	}

	if unmatched > 0 {
		keys := make([]models.CanonicalKey, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		return nil, &ers.UnmatchedKeyError{Keys: keyStrings(keys, missing), Records: unmatched}
	}

	return enriched, nil
}

// ValidateProviderGrain checks that provider-level rows are unique on (Grpng, Prvdr_ID).
func ValidateProviderGrain(records []models.BillingRecord) error {
	type grain struct {
		grouping   string
		providerID string
	}
	counts := make(map[grain]int)
	for _, r := range records {
		if r.SummaryCategory != constants.SummaryProvider {
			continue
		}
		counts[grain{r.Grouping, r.ProviderID}]++
	}

	var keys []string
	dupRecords := 0
	for g, n := range counts {
		if n > 1 {
			keys = append(keys, fmt.Sprintf("%s/%s (x%d)", g.providerID, g.grouping, n))
			dupRecords += n
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		return &ers.IntegrityError{Table: constants.TableHHRG, Keys: keys, Records: dupRecords}
	}
	return nil
}

func keyStrings(keys []models.CanonicalKey, counts map[models.CanonicalKey]int) []string {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s (x%d)", k, counts[k])
	}
	return out
}
