// Package aggregate collapses enriched HHRG rows into one summary per provider using
// episode-weighted averages.
package aggregate

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/casemix/models"
)

// Result holds the provider summaries and the providers left out of them.
type Result struct {
	Summaries []models.ProviderSummary
	// Excluded lists providers whose rows carry zero episodes in total. Their weighted
	// averages are undefined so they do not appear in Summaries.
	Excluded []models.ProviderIdentity
	// Rows is the number of provider-level rows that were aggregated.
	Rows int
}

// Aggregator collapses enriched records into one weighted summary per provider.
type Aggregator struct {
	Logger logrus.FieldLogger
}

type group struct {
	costs    []float64
	casemix  []float64
	episodes []float64
	total    int64
}

// ByProvider aggregates the PROVIDER rows of records grouped by (ID, Name, State).
// NATION rows are a different granularity and are ignored. Output is sorted by ID, Name, State.
func (a Aggregator) ByProvider(records []models.EnrichedRecord) Result {
	groups := make(map[models.ProviderIdentity]*group)
	rows := 0
	for _, r := range records {
		if r.SummaryCategory != constants.SummaryProvider {
			continue
		}
		rows++
		id := r.Identity()
		g, ok := groups[id]
		if !ok {
			g = &group{}
			groups[id] = g
		}
		g.costs = append(g.costs, r.AvgCharge)
		g.casemix = append(g.casemix, r.Weight.Weight)
		g.episodes = append(g.episodes, float64(r.Episodes))
		g.total += r.Episodes
	}

	ids := make([]models.ProviderIdentity, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessIdentity(ids[i], ids[j]) })

	res := Result{Rows: rows, Summaries: make([]models.ProviderSummary, 0, len(ids))}
	for _, id := range ids {
		g := groups[id]
		if g.total == 0 {
			a.logger().WithFields(logrus.Fields{
				"provider_id": id.ID, "provider_name": id.Name, "state": id.State, "rows": len(g.costs),
			}).Warn("Excluding provider with zero total episodes; weighted averages are undefined")
			res.Excluded = append(res.Excluded, id)
			continue
		}
		res.Summaries = append(res.Summaries, models.ProviderSummary{
			ProviderIdentity: id,
			AvgCost:          stat.Mean(g.costs, g.episodes),
			AvgCaseMix:       stat.Mean(g.casemix, g.episodes),
			TotalEpisodes:    g.total,
		})
	}

	a.logger().WithFields(logrus.Fields{
		"rows": rows, "providers": len(res.Summaries), "excluded": len(res.Excluded),
	}).Info("Aggregated provider-level rows")
	return res
}

func (a Aggregator) logger() logrus.FieldLogger {
	if a.Logger == nil {
		return logrus.StandardLogger()
	}
	return a.Logger
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
