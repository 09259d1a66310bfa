package normalize

import (
	"strconv"
	"strings"

	"github.com/CMSgov/casemix-app/casemix/models"
)

// Dimension names reported in NormalizationError.Field
const (
	fieldCount      = "field_count"
	fieldEpisode    = "episode_state"
	fieldTherapy    = "therapy_band"
	fieldClinical   = "clinical"
	fieldFunctional = "functional"
	fieldService    = "service"
	fieldLevels     = "levels"
)

// Billing table (Grpng_Desc) vocabulary. Values are compared after trimming whitespace.
var billingEpisodes = map[string]models.EpisodeState{
	"Early Episode":         models.EpisodeEarly,
	"Late Episode":          models.EpisodeLate,
	"Early or Late Episode": models.EpisodeEarlyOrLate,
}

var billingTherapies = map[string]models.TherapyBand{
	"0-13 therapies":  models.TherapyLow,
	"14-19 therapies": models.TherapyMid,
	"20+ therapies":   models.TherapyHigh,
}

// Case-mix weight table (Description) vocabulary.
var weightEpisodes = map[string]models.EpisodeState{
	"1st and 2nd Episodes": models.EpisodeEarly,
	"All Episodes":         models.EpisodeEarlyOrLate,
	"3rd+ Episodes":        models.EpisodeLate,
}

var weightTherapies = map[string]models.TherapyBand{
	"0 to 5 Therapy Visits":   models.TherapyLow,
	"6 Therapy Visits":        models.TherapyLow,
	"7 to 9 Therapy Visits":   models.TherapyLow,
	"10 Therapy Visits":       models.TherapyLow,
	"11 to 13 Therapy Visits": models.TherapyLow,
	"14 to 15 Therapy Visits": models.TherapyMid,
	"16 to 17 Therapy Visits": models.TherapyMid,
	"18 to 19 Therapy Visits": models.TherapyMid,
	"20+ Therapy Visits":      models.TherapyHigh,
}

func lookupEpisode(table map[string]models.EpisodeState, token string) (models.EpisodeState, bool) {
	e, ok := table[strings.TrimSpace(token)]
	return e, ok
}

func lookupTherapy(table map[string]models.TherapyBand, token string) (models.TherapyBand, bool) {
	t, ok := table[strings.TrimSpace(token)]
	return t, ok
}

// parseSeverityLabel reads "{Dimension} Severity Level {d}" for the given dimension.
func parseSeverityLabel(d models.SeverityDimension, token string) (uint8, bool) {
	prefix := d.String() + " Severity Level "
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, prefix) {
		return 0, false
	}
	return parseLevel(d, strings.TrimPrefix(token, prefix))
}

func parseLevel(d models.SeverityDimension, digits string) (uint8, bool) {
	if len(digits) != 1 {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil || n < 1 || n > uint64(d.MaxLevel()) {
		return 0, false
	}
	return uint8(n), true
}

func severityField(d models.SeverityDimension) string {
	switch d {
	case models.Clinical:
		return fieldClinical
	case models.Functional:
		return fieldFunctional
	default:
		return fieldService
	}
}
