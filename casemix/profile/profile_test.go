package profile

import (
	"bytes"
	"database/sql"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/CMSgov/casemix-app/casemix/models"
)

func count(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: true}
}

func fixtures() ([]models.ServiceSummary, []models.BillingRecord) {
	services := []models.ServiceSummary{
		{SummaryCategory: "NATION", ServiceCategory: models.ServiceHomeHealth, Beneficiaries: count(3000000), Episodes: count(6500000)},
		{SummaryCategory: "NATION", ServiceCategory: models.ServiceHomeHealth, Beneficiaries: sql.NullInt64{}, Episodes: count(1234)},
		{SummaryCategory: "NATION", ServiceCategory: models.ServiceSkilledNursing, Beneficiaries: count(99), Episodes: count(99)},
		{ProviderID: "017000", SummaryCategory: "PROVIDER", ServiceCategory: models.ServiceHomeHealth, Episodes: count(50)},
		{ProviderID: "017014", SummaryCategory: "PROVIDER", ServiceCategory: models.ServiceHospice},
	}
	billing := []models.BillingRecord{
		{SummaryCategory: "NATION", Episodes: 6000000},
		{SummaryCategory: "NATION", Episodes: 400000},
		{SummaryCategory: "PROVIDER", Episodes: 50},
	}
	return services, billing
}

func TestNational(t *testing.T) {
	totals := National(fixtures())

	assert.Equal(t, []models.ServiceCategory{"HH", "HOS", "SNF"}, totals.ServiceCategories)
	assert.Equal(t, int64(3000000), totals.HHBeneficiaries)
	assert.Equal(t, int64(6501234), totals.HHEpisodes)
	assert.Equal(t, int64(6400000), totals.HHRGEpisodes)
	assert.Equal(t, int64(101234), totals.Difference)
}

func TestNationalEmpty(t *testing.T) {
	totals := National(nil, nil)
	assert.Empty(t, totals.ServiceCategories)
	assert.Zero(t, totals.Difference)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, National(fixtures()).Write(&buf, language.AmericanEnglish))

	out := buf.String()
	assert.Contains(t, out, "  HH   Home Health\n")
	assert.Contains(t, out, "  SNF  Skilled Nursing Facility\n")
	assert.Contains(t, out, "Home health episodes (provider-by-service):      6,501,234\n")
	assert.Contains(t, out, "Home health episodes (HHRG):                     6,400,000\n")
	assert.Contains(t, out, "Difference:                                      101,234\n")
}

func TestLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	National(fixtures()).Log(logger)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "National home health totals", entry.Message)
	assert.Equal(t, []string{"HH", "HOS", "SNF"}, entry.Data["service_categories"])
	assert.Equal(t, int64(101234), entry.Data["difference"])
}
