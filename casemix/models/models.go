package models

import (
	"database/sql"
	"fmt"
	"time"
)

// ServiceCategory is the post-acute care setting of a billing row (Srvc_Ctgry).
type ServiceCategory string

const (
	ServiceHomeHealth     ServiceCategory = "HH"
	ServiceHospice        ServiceCategory = "HOS"
	ServiceInpatientRehab ServiceCategory = "IRF"
	ServiceLongTermCare   ServiceCategory = "LTC"
	ServiceSkilledNursing ServiceCategory = "SNF"
)

var serviceCategories = map[ServiceCategory]string{
	ServiceHomeHealth:     "Home Health",
	ServiceHospice:        "Hospice",
	ServiceInpatientRehab: "Inpatient Rehabilitation Facility",
	ServiceLongTermCare:   "Long Term Care Hospital",
	ServiceSkilledNursing: "Skilled Nursing Facility",
}

// ParseServiceCategory validates a Srvc_Ctgry code.
func ParseServiceCategory(code string) (ServiceCategory, error) {
	c := ServiceCategory(code)
	if _, ok := serviceCategories[c]; !ok {
		return "", fmt.Errorf("unknown service category '%s'", code)
	}
	return c, nil
}

// Description returns the long form name of the category.
func (c ServiceCategory) Description() string {
	return serviceCategories[c]
}

// BillingRecord is one HHRG row: a provider (or the nation) billed under one resource group.
type BillingRecord struct {
	ProviderID      string
	ProviderName    string
	State           string
	SummaryCategory string
	ServiceCategory ServiceCategory
	Grouping        string
	GroupingDesc    string
	Episodes        int64
	AvgCharge       float64

	// Row is the 1-based data row in the source table.
	Row int
	Key CanonicalKey
}

// Identity returns the provider grouping key of the record.
func (r BillingRecord) Identity() ProviderIdentity {
	return ProviderIdentity{ID: r.ProviderID, Name: r.ProviderName, State: r.State}
}

// CaseMixWeight is one row of the HH PPS case-mix weight table.
type CaseMixWeight struct {
	PaymentGroup string
	Description  string
	LevelCode    string
	Weight       float64

	Row int
	Key CanonicalKey
}

// EnrichedRecord is a billing record with its matched case-mix weight.
type EnrichedRecord struct {
	BillingRecord
	Weight CaseMixWeight
}

// ProviderIdentity jointly identifies a provider in the HHRG table.
type ProviderIdentity struct {
	ID    string
	Name  string
	State string
}

func (p ProviderIdentity) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.ID, p.Name, p.State)
}

// ProviderSummary aggregates all provider-level rows of a single provider.
type ProviderSummary struct {
	ProviderIdentity
	AvgCost       float64
	AvgCaseMix    float64
	TotalEpisodes int64

	// CostNormalized is AvgCost / AvgCaseMix. Valid is false when the ratio is undefined.
	CostNormalized sql.NullFloat64
}

// ServiceSummary is one row of the provider-by-service table.
type ServiceSummary struct {
	ProviderID      string
	SummaryCategory string
	ServiceCategory ServiceCategory
	Beneficiaries   sql.NullInt64
	Episodes        sql.NullInt64
}

// Run records one pipeline execution whose summaries were persisted.
type Run struct {
	ID          string
	CreatedAt   time.Time
	BillingFile string
	HHRGFile    string
	CaseMixFile string
	Providers   int
	Excluded    int
}
