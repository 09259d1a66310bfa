package metrics

// Stage names a timed step of a case-mix run. Parent stages become New Relic
// transactions and the others become segments within them.
type Stage string

// Parent stages, one per entry point.
const (
	StagePipeline       Stage = "casemixPipeline"
	StageValidate       Stage = "casemixValidate"
	StageNationalTotals Stage = "casemixNationalTotals"
)

// Child stages.
const (
	StageLoadServiceSummaries Stage = "loadServiceSummaries"
	StageLoadBillingRecords   Stage = "loadBillingRecords"
	StageLoadCaseMixWeights   Stage = "loadCaseMixWeights"
	StageOpenLocalFile        Stage = "openLocalFile"
	StageOpenS3File           Stage = "openS3File"
	StageNormalize            Stage = "normalize"
	StageJoin                 Stage = "join"
	StageAggregate            Stage = "aggregate"
	StageDerive               Stage = "derive"
	StageExportCSV            Stage = "exportCSV"
	StageExportParquet        Stage = "exportParquet"
	StageExportPostgres       Stage = "exportPostgres"
)

var parentStages = map[Stage]bool{
	StagePipeline:       true,
	StageValidate:       true,
	StageNationalTotals: true,
}

// IsParent reports whether s starts a transaction rather than a segment.
func (s Stage) IsParent() bool {
	return parentStages[s]
}

func (s Stage) String() string {
	return string(s)
}
