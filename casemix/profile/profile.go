// Package profile reconciles the national totals reported by the provider-by-service table
// with those of the HHRG table.
package profile

import (
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/casemix/models"
)

// NationalTotals compares home health episode counts across the two billing tables.
// A non-zero Difference is expected; the tables are published with different suppression rules.
type NationalTotals struct {
	// ServiceCategories lists every Srvc_Ctgry present in the provider-by-service table.
	ServiceCategories []models.ServiceCategory
	// HHBeneficiaries and HHEpisodes sum the HH NATION rows, skipping unreported values.
	HHBeneficiaries int64
	HHEpisodes      int64
	// HHRGEpisodes sums the episodes of the HHRG NATION rows.
	HHRGEpisodes int64
	Difference   int64
}

// National compares the episode totals of the provider-by-service table with the
// HHRG NATION rows.
func National(services []models.ServiceSummary, billing []models.BillingRecord) NationalTotals {
	var totals NationalTotals
	seen := make(map[models.ServiceCategory]struct{})
	for _, s := range services {
		if _, ok := seen[s.ServiceCategory]; !ok {
			seen[s.ServiceCategory] = struct{}{}
			totals.ServiceCategories = append(totals.ServiceCategories, s.ServiceCategory)
		}
		if s.SummaryCategory != constants.SummaryNation || s.ServiceCategory != models.ServiceHomeHealth {
			continue
		}
		if s.Beneficiaries.Valid {
			totals.HHBeneficiaries += s.Beneficiaries.Int64
		}
		if s.Episodes.Valid {
			totals.HHEpisodes += s.Episodes.Int64
		}
	}
	sort.Slice(totals.ServiceCategories, func(i, j int) bool {
		return totals.ServiceCategories[i] < totals.ServiceCategories[j]
	})

	for _, r := range billing {
		if r.SummaryCategory == constants.SummaryNation {
			totals.HHRGEpisodes += r.Episodes
		}
	}
	totals.Difference = totals.HHEpisodes - totals.HHRGEpisodes
	return totals
}

// Log records the totals as a single structured entry.
func (n NationalTotals) Log(logger logrus.FieldLogger) {
	categories := make([]string, len(n.ServiceCategories))
	for i, c := range n.ServiceCategories {
		categories[i] = string(c)
	}
	logger.WithFields(logrus.Fields{
		"service_categories": categories,
		"hh_beneficiaries":   n.HHBeneficiaries,
		"hh_episodes":        n.HHEpisodes,
		"hhrg_episodes":      n.HHRGEpisodes,
		"difference":         n.Difference,
	}).Info("National home health totals")
}

// Write prints a human readable report with numbers grouped for tag.
func (n NationalTotals) Write(w io.Writer, tag language.Tag) error {
	p := message.NewPrinter(tag)
	if _, err := p.Fprintf(w, "Service categories:\n"); err != nil {
		return err
	}
	for _, c := range n.ServiceCategories {
		desc := c.Description()
		if desc == "" {
			desc = "unknown"
		}
		if _, err := p.Fprintf(w, "  %-4s %s\n", string(c), desc); err != nil {
			return err
		}
	}
	_, err := p.Fprintf(w, "Home health beneficiaries (provider-by-service): %d\n"+
		"Home health episodes (provider-by-service):      %d\n"+
		"Home health episodes (HHRG):                     %d\n"+
		"Difference:                                      %d\n",
		n.HHBeneficiaries, n.HHEpisodes, n.HHRGEpisodes, n.Difference)
	return err
}
