package constants

// Smry_Ctgry values in the HHRG and provider-by-service tables
const SummaryProvider = "PROVIDER"
const SummaryNation = "NATION"

// Column names shared by the CMS public use files
const (
	ColProviderID      = "Prvdr_ID"
	ColProviderName    = "Prvdr_Name"
	ColState           = "State"
	ColSummaryCategory = "Smry_Ctgry"
	ColServiceCategory = "Srvc_Ctgry"
	ColGrouping        = "Grpng"
	ColGroupingDesc    = "Grpng_Desc"
	ColEpisodes        = "Tot_Epsd_Stay_Cnt"
	ColAvgCharge       = "Avg_Chrg_Per_Epsd"
	ColBeneficiaries   = "Bene_Dstnct_Cnt"

	ColPaymentGroup  = "Payment Group"
	ColDescription   = "Description"
	ColLevels        = "Clinical, Functional, and Service Levels"
	ColPriorWeight   = "2013 HH PPS Case-Mix Weights"
	ColCurrentWeight = "2014 Final HH PPS Case-Mix Weights"
	ColCaseMixWeight = "casemix_2014"
)

// Expected table shapes for the CY2014 public use files
const (
	BillingRows, BillingCols = 31665, 122
	HHRGRows, HHRGCols       = 111904, 20
	CaseMixRows, CaseMixCols = 153, 4
	CaseMixGroups            = 153
)

// Half-open column range of the HHRG table holding currency-formatted values
const (
	HHRGCurrencyStart = 8
	HHRGCurrencyEnd   = 21
)

// Table names used in logs and errors
const (
	TableBilling = "billing"
	TableHHRG    = "hhrg"
	TableCaseMix = "casemix"
)

// This is set during compilation.
var Version = "latest"
