package join

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ers "github.com/CMSgov/casemix-app/casemix/errors"
	"github.com/CMSgov/casemix-app/casemix/models"
)

func key(c, f, s uint8) models.CanonicalKey {
	return models.CanonicalKey{Episode: models.EpisodeEarly, Therapy: models.TherapyLow, Clinical: c, Functional: f, Service: s}
}

func weights() []models.CaseMixWeight {
	return []models.CaseMixWeight{
		{PaymentGroup: "10111", Weight: 1.0, Key: key(1, 1, 1)},
		{PaymentGroup: "10112", Weight: 2.0, Key: key(1, 1, 2)},
		{PaymentGroup: "10113", Weight: 3.0, Key: key(1, 1, 3)},
	}
}

func TestIndexWeights(t *testing.T) {
	idx, err := IndexWeights(weights())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	w, ok := idx.Lookup(key(1, 1, 2))
	assert.True(t, ok)
	assert.Equal(t, 2.0, w.Weight)

	_, ok = idx.Lookup(key(3, 3, 5))
	assert.False(t, ok)
}

func TestIndexWeightsDuplicates(t *testing.T) {
	ws := append(weights(),
		models.CaseMixWeight{PaymentGroup: "dup1", Weight: 9, Key: key(1, 1, 2)},
		models.CaseMixWeight{PaymentGroup: "dup2", Weight: 9, Key: key(1, 1, 2)},
		models.CaseMixWeight{PaymentGroup: "dup3", Weight: 9, Key: key(1, 1, 1)},
	)

	idx, err := IndexWeights(ws)
	assert.Equal(t, 0, idx.Len())

	var ie *ers.IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "casemix", ie.Table)
	assert.Equal(t, 5, ie.Records)
	require.Len(t, ie.Keys, 2)
	assert.Equal(t, key(1, 1, 1).String()+" (x2)", ie.Keys[0])
	assert.Equal(t, key(1, 1, 2).String()+" (x3)", ie.Keys[1])
}

// TestIndexWeightsDistinctKeys checks that every pair of rows in a valid index has distinct keys.
func TestIndexWeightsDistinctKeys(t *testing.T) {
	ws := weights()
	_, err := IndexWeights(ws)
	require.NoError(t, err)
	for i := range ws {
		for j := i + 1; j < len(ws); j++ {
			assert.NotEqual(t, ws[i].Key, ws[j].Key)
		}
	}
}

func TestJoin(t *testing.T) {
	idx, err := IndexWeights(weights())
	require.NoError(t, err)

	records := []models.BillingRecord{
		{ProviderID: "P1", Episodes: 5, Key: key(1, 1, 1)},
		{ProviderID: "P1", Episodes: 5, Key: key(1, 1, 2)},
		{ProviderID: "P2", Episodes: 7, Key: key(1, 1, 2)},
		{ProviderID: "P3", Episodes: 1, Key: key(1, 1, 3)},
	}

	enriched, err := Join(records, idx)
	require.NoError(t, err)
	require.Len(t, enriched, len(records))
	for i, e := range enriched {
		assert.Equal(t, records[i], e.BillingRecord)
		assert.Equal(t, records[i].Key, e.Weight.Key)
	}
	assert.Equal(t, 1.0, enriched[0].Weight.Weight)
	assert.Equal(t, 2.0, enriched[2].Weight.Weight)
}

func TestJoinUnmatched(t *testing.T) {
	idx, err := IndexWeights(weights())
	require.NoError(t, err)

	records := []models.BillingRecord{
		{ProviderID: "P1", Key: key(1, 1, 1)},
		{ProviderID: "P2", Key: key(2, 2, 2)},
		{ProviderID: "P3", Key: key(2, 2, 2)},
		{ProviderID: "P4", Key: key(3, 1, 1)},
	}

	enriched, err := Join(records, idx)
	assert.Nil(t, enriched)

	var ue *ers.UnmatchedKeyError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 3, ue.Records)
	assert.Equal(t, []string{key(2, 2, 2).String() + " (x2)", key(3, 1, 1).String() + " (x1)"}, ue.Keys)
	assert.Contains(t, ue.Error(), "3 billing records")
}

func TestJoinEmpty(t *testing.T) {
	idx, err := IndexWeights(weights())
	require.NoError(t, err)
	enriched, err := Join(nil, idx)
	assert.NoError(t, err)
	assert.Empty(t, enriched)
}

func TestValidateProviderGrain(t *testing.T) {
	records := []models.BillingRecord{
		{ProviderID: "P1", Grouping: "1", SummaryCategory: "PROVIDER"},
		{ProviderID: "P1", Grouping: "2", SummaryCategory: "PROVIDER"},
		{ProviderID: "P2", Grouping: "1", SummaryCategory: "PROVIDER"},
		{ProviderID: "", Grouping: "1", SummaryCategory: "NATION"},
		{ProviderID: "", Grouping: "1", SummaryCategory: "NATION"},
	}
	assert.NoError(t, ValidateProviderGrain(records))

	records = append(records, models.BillingRecord{ProviderID: "P1", Grouping: "2", SummaryCategory: "PROVIDER"})
	err := ValidateProviderGrain(records)
	var ie *ers.IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "hhrg", ie.Table)
	assert.Equal(t, []string{"P1/2 (x2)"}, ie.Keys)
	assert.Equal(t, 2, ie.Records)
}
