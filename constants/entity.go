package constants

// Entity types accepted by the download endpoint.
const (
	EntityDeforestationAnalysis       = "DeforestationAnalysis"
	EntityDeforestationAnalysisProdes = "DeforestationAnalysisProdes"
	EntityReportRestrictionsDetailed  = "ReportRestrictionsDetailed"
)

// EntityFolder maps a download entity type to the local folder artifacts are
// saved under. MapBiomas analyses historically use a longer folder name.
func EntityFolder(entityType string) string {
	if entityType == EntityDeforestationAnalysis {
		return "DeforestationAnalysisMapBiomas"
	}
	return entityType
}
