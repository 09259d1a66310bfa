package aggregate

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/CMSgov/casemix-app/casemix/models"
)

type AggregateTestSuite struct {
	suite.Suite
	agg  Aggregator
	hook *test.Hook
}

func (s *AggregateTestSuite) SetupTest() {
	logger, hook := test.NewNullLogger()
	s.hook = hook
	s.agg = Aggregator{Logger: logger}
}

func TestAggregateTestSuite(t *testing.T) {
	suite.Run(t, new(AggregateTestSuite))
}

func enriched(id, name, state, smry string, episodes int64, cost, weight float64) models.EnrichedRecord {
	return models.EnrichedRecord{
		BillingRecord: models.BillingRecord{
			ProviderID: id, ProviderName: name, State: state, SummaryCategory: smry,
			Episodes: episodes, AvgCharge: cost,
		},
		Weight: models.CaseMixWeight{Weight: weight},
	}
}

func (s *AggregateTestSuite) TestWeightedAverage() {
	res := s.agg.ByProvider([]models.EnrichedRecord{
		enriched("P1", "Agency", "IL", "PROVIDER", 10, 100, 1.0),
		enriched("P1", "Agency", "IL", "PROVIDER", 30, 300, 2.0),
	})

	require.Len(s.T(), res.Summaries, 1)
	sum := res.Summaries[0]
	assert.Equal(s.T(), 250.0, sum.AvgCost)
	assert.Equal(s.T(), 1.75, sum.AvgCaseMix)
	assert.Equal(s.T(), int64(40), sum.TotalEpisodes)
	assert.False(s.T(), sum.CostNormalized.Valid)
	assert.Equal(s.T(), 2, res.Rows)
}

func (s *AggregateTestSuite) TestNationRowsIgnored() {
	res := s.agg.ByProvider([]models.EnrichedRecord{
		enriched("", "", "", "NATION", 100000, 9999, 3.0),
		enriched("P1", "Agency", "IL", "PROVIDER", 5, 100, 1.0),
	})

	require.Len(s.T(), res.Summaries, 1)
	assert.Equal(s.T(), "P1", res.Summaries[0].ID)
	assert.Equal(s.T(), 100.0, res.Summaries[0].AvgCost)
	assert.Equal(s.T(), 1, res.Rows)
}

// TestGroupingTriple verifies that the same ID under a different name or state is a separate provider
func (s *AggregateTestSuite) TestGroupingTriple() {
	res := s.agg.ByProvider([]models.EnrichedRecord{
		enriched("P2", "Second", "WI", "PROVIDER", 1, 10, 1.0),
		enriched("P1", "Agency", "IN", "PROVIDER", 1, 20, 1.0),
		enriched("P1", "Agency", "IL", "PROVIDER", 1, 30, 1.0),
		enriched("P1", "Agency B", "IL", "PROVIDER", 1, 40, 1.0),
	})

	require.Len(s.T(), res.Summaries, 4)
	var got []models.ProviderIdentity
	for _, sum := range res.Summaries {
		got = append(got, sum.ProviderIdentity)
	}
	assert.Equal(s.T(), []models.ProviderIdentity{
		{ID: "P1", Name: "Agency", State: "IL"},
		{ID: "P1", Name: "Agency", State: "IN"},
		{ID: "P1", Name: "Agency B", State: "IL"},
		{ID: "P2", Name: "Second", State: "WI"},
	}, got)
}

func (s *AggregateTestSuite) TestZeroEpisodesExcluded() {
	res := s.agg.ByProvider([]models.EnrichedRecord{
		enriched("P0", "Empty", "IL", "PROVIDER", 0, 100, 1.0),
		enriched("P0", "Empty", "IL", "PROVIDER", 0, 200, 2.0),
		enriched("P1", "Agency", "IL", "PROVIDER", 0, 500, 1.0),
		enriched("P1", "Agency", "IL", "PROVIDER", 4, 100, 1.0),
	})

	require.Len(s.T(), res.Summaries, 1)
	assert.Equal(s.T(), "P1", res.Summaries[0].ID)
	// A zero-episode row inside a non-empty group carries no weight
	assert.Equal(s.T(), 100.0, res.Summaries[0].AvgCost)
	for _, sum := range res.Summaries {
		assert.False(s.T(), math.IsNaN(sum.AvgCost))
		assert.False(s.T(), math.IsNaN(sum.AvgCaseMix))
	}

	assert.Equal(s.T(), []models.ProviderIdentity{{ID: "P0", Name: "Empty", State: "IL"}}, res.Excluded)

	var warned bool
	for _, e := range s.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
			assert.Equal(s.T(), "P0", e.Data["provider_id"])
		}
	}
	assert.True(s.T(), warned, "exclusion should be logged")
}

func (s *AggregateTestSuite) TestEmptyInput() {
	res := s.agg.ByProvider(nil)
	assert.Empty(s.T(), res.Summaries)
	assert.Empty(s.T(), res.Excluded)
	assert.Equal(s.T(), 0, res.Rows)
}

func TestNilLogger(t *testing.T) {
	res := Aggregator{}.ByProvider([]models.EnrichedRecord{
		enriched("P1", "Agency", "IL", "PROVIDER", 5, 10, 1.0),
	})
	assert.Len(t, res.Summaries, 1)
}
