// Package metric derives the case-mix-normalized cost ratio for provider summaries.
package metric

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/CMSgov/casemix-app/casemix/models"
)

// Derive returns a copy of summaries with CostNormalized set to AvgCost / AvgCaseMix.
// A zero AvgCaseMix leaves CostNormalized invalid rather than infinite.
func Derive(summaries []models.ProviderSummary) []models.ProviderSummary {
	out := make([]models.ProviderSummary, len(summaries))
	for i, s := range summaries {
		s.CostNormalized = CostNormalized(s.AvgCost, s.AvgCaseMix)
		out[i] = s
	}
	return out
}

// CostNormalized is avgCost divided by avgCaseMix, or NULL when avgCaseMix is zero.
func CostNormalized(avgCost, avgCaseMix float64) sql.NullFloat64 {
	if avgCaseMix == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: avgCost / avgCaseMix, Valid: true}
}

// RankBy selects the column used by TopByState.
type RankBy int

const (
	ByCostNormalized RankBy = iota
	ByAvgCost
)

func (r RankBy) String() string {
	switch r {
	case ByAvgCost:
		return "avg_cost"
	case ByCostNormalized:
		return "cost_normalized"
	default:
		return "unknown"
	}
}

// ParseRankBy accepts the column names used in exported tables.
func ParseRankBy(s string) (RankBy, error) {
	switch s {
	case "avg_cost":
		return ByAvgCost, nil
	case "cost_normalized":
		return ByCostNormalized, nil
	}
	return 0, fmt.Errorf("unsupported ranking column '%s'", s)
}

// TopByState returns up to n providers in state ordered by the selected column, highest first.
// Undefined ratios sort after every defined value. Ties keep ID, Name, State order.
// A non-positive n returns every provider in the state.
func TopByState(summaries []models.ProviderSummary, state string, n int, by RankBy) []models.ProviderSummary {
	var matched []models.ProviderSummary
	for _, s := range summaries {
		if s.State == state {
			matched = append(matched, s)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := value(matched[i], by), value(matched[j], by)
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Float64 != b.Float64 {
			return a.Float64 > b.Float64
		}
		return lessIdentity(matched[i].ProviderIdentity, matched[j].ProviderIdentity)
	})

	if n > 0 && len(matched) > n {
		matched = matched[:n]
	}
	return matched
}

func value(s models.ProviderSummary, by RankBy) sql.NullFloat64 {
	if by == ByAvgCost {
		return sql.NullFloat64{Float64: s.AvgCost, Valid: true}
	}
	return s.CostNormalized
}

func lessIdentity(a, b models.ProviderIdentity) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.State < b.State
}
