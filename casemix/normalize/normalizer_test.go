package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ers "github.com/CMSgov/casemix-app/casemix/errors"
	"github.com/CMSgov/casemix-app/casemix/models"
)

func TestParseBillingDescriptor(t *testing.T) {
	base := models.CanonicalKey{Episode: models.EpisodeEarly, Therapy: models.TherapyLow, Clinical: 1, Functional: 1, Service: 1}

	tests := []struct {
		name string
		desc string
		key  models.CanonicalKey
	}{
		{"plain", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1", base},
		{"trailingComma", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1,", base},
		{"trailingCommas", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1,,, ", base},
		{"extraSpaces", "  Early Episode ,  0-13 therapies , Clinical Severity Level 1,Functional Severity Level 1 , Service Severity Level 1 ", base},
		{"late", "Late Episode, 20+ therapies, Clinical Severity Level 3, Functional Severity Level 2, Service Severity Level 5",
			models.CanonicalKey{Episode: models.EpisodeLate, Therapy: models.TherapyHigh, Clinical: 3, Functional: 2, Service: 5}},
		{"earlyOrLate", "Early or Late Episode, 14-19 therapies, Clinical Severity Level 2, Functional Severity Level 3, Service Severity Level 4",
			models.CanonicalKey{Episode: models.EpisodeEarlyOrLate, Therapy: models.TherapyMid, Clinical: 2, Functional: 3, Service: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseBillingDescriptor(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.True(t, key.Valid())
		})
	}
}

func TestParseBillingDescriptorInvalid(t *testing.T) {
	tests := []struct {
		name  string
		desc  string
		field string
		value string
	}{
		{"empty", "", fieldCount, "1"},
		{"fourFields", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1", fieldCount, "4"},
		{"sixFields", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1, extra", fieldCount, "6"},
		{"wrongDelimiter", "Early Episode; 0-13 therapies; Clinical Severity Level 1; Functional Severity Level 1; Service Severity Level 1", fieldCount, "1"},
		{"interiorEmpty", "Early Episode,, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1", fieldTherapy, ""},
		{"unknownEpisode", "Middle Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1", fieldEpisode, "Middle Episode"},
		{"unknownTherapy", "Early Episode, 0-12 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1", fieldTherapy, "0-12 therapies"},
		{"clinicalOutOfRange", "Early Episode, 0-13 therapies, Clinical Severity Level 4, Functional Severity Level 1, Service Severity Level 1", fieldClinical, "Clinical Severity Level 4"},
		{"functionalSwapped", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Service Severity Level 1, Functional Severity Level 1", fieldFunctional, "Service Severity Level 1"},
		{"serviceOutOfRange", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 6", fieldService, "Service Severity Level 6"},
		{"serviceZero", "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 0", fieldService, "Service Severity Level 0"},
		{"weightVocabulary", "1st and 2nd Episodes, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 1, Service Severity Level 1", fieldEpisode, "1st and 2nd Episodes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseBillingDescriptor(tt.desc)
			assert.Equal(t, models.CanonicalKey{}, key)

			var ne *ers.NormalizationError
			require.True(t, errors.As(err, &ne), "expected NormalizationError, got %v", err)
			assert.Equal(t, "hhrg", ne.Source)
			assert.Equal(t, tt.field, ne.Field)
			assert.Equal(t, tt.value, ne.Value)
			assert.Equal(t, tt.desc, ne.Descriptor)
			assert.Equal(t, 1, ne.Records)
		})
	}
}

// TestBillingDescriptorRoundTrip verifies every key renders to a descriptor that parses back to itself.
func TestBillingDescriptorRoundTrip(t *testing.T) {
	count := 0
	for _, e := range []models.EpisodeState{models.EpisodeEarly, models.EpisodeLate, models.EpisodeEarlyOrLate} {
		for _, th := range []models.TherapyBand{models.TherapyLow, models.TherapyMid, models.TherapyHigh} {
			for c := uint8(1); c <= 3; c++ {
				for f := uint8(1); f <= 3; f++ {
					for s := uint8(1); s <= 5; s++ {
						key := models.CanonicalKey{Episode: e, Therapy: th, Clinical: c, Functional: f, Service: s}
						got, err := ParseBillingDescriptor(key.String() + ",")
						require.NoError(t, err, key.String())
						assert.Equal(t, key, got)
						count++
					}
				}
			}
		}
	}
	assert.Equal(t, 405, count)
}

func TestWeightVocabulary(t *testing.T) {
	episodes := map[string]models.EpisodeState{
		"1st and 2nd Episodes": models.EpisodeEarly,
		"All Episodes":         models.EpisodeEarlyOrLate,
		"3rd+ Episodes":        models.EpisodeLate,
	}
	therapies := map[string]models.TherapyBand{
		" 0 to 5 Therapy Visits":   models.TherapyLow,
		" 6 Therapy Visits":        models.TherapyLow,
		" 7 to 9 Therapy Visits":   models.TherapyLow,
		" 10 Therapy Visits":       models.TherapyLow,
		" 11 to 13 Therapy Visits": models.TherapyLow,
		" 14 to 15 Therapy Visits": models.TherapyMid,
		" 16 to 17 Therapy Visits": models.TherapyMid,
		" 18 to 19 Therapy Visits": models.TherapyMid,
		" 20+ Therapy Visits ":     models.TherapyHigh,
	}
	assert.Len(t, weightEpisodes, len(episodes))
	assert.Len(t, weightTherapies, len(therapies))

	for ep, wantEp := range episodes {
		for th, wantTh := range therapies {
			key, err := ParseWeightDescription(ep+","+th, "C2F3S4")
			require.NoError(t, err)
			assert.Equal(t, models.CanonicalKey{Episode: wantEp, Therapy: wantTh, Clinical: 2, Functional: 3, Service: 4}, key)
		}
	}
}

func TestParseWeightDescriptionInvalid(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		levels string
		field  string
		value  string
	}{
		{"noComma", "1st and 2nd Episodes 0 to 5 Therapy Visits", "C1F1S1", fieldCount, "1"},
		{"threeParts", "1st and 2nd Episodes, 0 to 5 Therapy Visits, extra", "C1F1S1", fieldCount, "3"},
		{"unknownEpisode", "4th Episodes, 0 to 5 Therapy Visits", "C1F1S1", fieldEpisode, "4th Episodes"},
		{"unknownTherapy", "All Episodes, 21 Therapy Visits", "C1F1S1", fieldTherapy, "21 Therapy Visits"},
		{"billingVocabulary", "Early Episode, 0-13 therapies", "C1F1S1", fieldEpisode, "Early Episode"},
		{"shortCode", "All Episodes, 20+ Therapy Visits", "C1F1S", fieldLevels, "C1F1S"},
		{"longCode", "All Episodes, 20+ Therapy Visits", "C1F1S1X", fieldLevels, "C1F1S1X"},
		{"badClinical", "All Episodes, 20+ Therapy Visits", "C4F1S1", fieldClinical, "C4"},
		{"swappedLetters", "All Episodes, 20+ Therapy Visits", "F1C1S1", fieldClinical, "F1"},
		{"badFunctional", "All Episodes, 20+ Therapy Visits", "C1FXS1", fieldFunctional, "FX"},
		{"badService", "All Episodes, 20+ Therapy Visits", "C1F1S6", fieldService, "S6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWeightDescription(tt.desc, tt.levels)
			var ne *ers.NormalizationError
			require.True(t, errors.As(err, &ne), "expected NormalizationError, got %v", err)
			assert.Equal(t, "casemix", ne.Source)
			assert.Equal(t, tt.field, ne.Field)
			assert.Equal(t, tt.value, ne.Value)
		})
	}
}

func TestParseSeverityCode(t *testing.T) {
	sc, err := ParseSeverityCode(" C3F2S5 ")
	require.NoError(t, err)
	assert.Equal(t, SeverityCode{Clinical: 3, Functional: 2, Service: 5}, sc)
	assert.Equal(t, "C3F2S5", sc.String())

	_, err = ParseSeverityCode("c3f2s5")
	assert.Error(t, err)
}

func TestNormalizeBilling(t *testing.T) {
	good := "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 2, Service Severity Level 3,"
	bad := "Early Episode, 0-13 therapies, Clinical Severity Level 1, Functional Severity Level 2"

	records := []models.BillingRecord{
		{ProviderID: "P1", GroupingDesc: good},
		{ProviderID: "P2", GroupingDesc: good},
	}
	out, err := NormalizeBilling(records)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, models.CanonicalKey{Episode: models.EpisodeEarly, Therapy: models.TherapyLow, Clinical: 1, Functional: 2, Service: 3}, r.Key)
	}
	// Input is not modified
	assert.Equal(t, models.CanonicalKey{}, records[0].Key)

	records = append(records,
		models.BillingRecord{ProviderID: "P3", GroupingDesc: bad},
		models.BillingRecord{ProviderID: "P4", GroupingDesc: bad})
	out, err = NormalizeBilling(records)
	assert.Nil(t, out)
	var ne *ers.NormalizationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 2, ne.Records)
	assert.Equal(t, fieldCount, ne.Field)
	assert.Equal(t, bad, ne.Descriptor)
}

func TestNormalizeWeights(t *testing.T) {
	weights := []models.CaseMixWeight{
		{PaymentGroup: "10111", Description: "1st and 2nd Episodes, 0 to 5 Therapy Visits", LevelCode: "C1F1S1", Weight: 0.5},
		{PaymentGroup: "10112", Description: "1st and 2nd Episodes, 6 Therapy Visits", LevelCode: "C1F1S2", Weight: 0.6},
	}
	out, err := NormalizeWeights(weights)
	require.NoError(t, err)
	assert.Equal(t, models.CanonicalKey{Episode: models.EpisodeEarly, Therapy: models.TherapyLow, Clinical: 1, Functional: 1, Service: 1}, out[0].Key)
	assert.Equal(t, models.CanonicalKey{Episode: models.EpisodeEarly, Therapy: models.TherapyLow, Clinical: 1, Functional: 1, Service: 2}, out[1].Key)

	weights[1].LevelCode = "C1F1"
	_, err = NormalizeWeights(weights)
	var ne *ers.NormalizationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 1, ne.Records)
	assert.Equal(t, fieldLevels, ne.Field)
}
