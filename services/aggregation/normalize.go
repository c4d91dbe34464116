package aggregation

import (
	"fmt"

	"github.com/Jeffail/gabs"

	"boltzmon/api/models"
)

/*
	The backend reports the same logical metric under different JSON
	paths depending on API version. Each fallback chain lives here and
	only here: a raw result is normalized exactly once into a canonical
	JobMetrics, and no use site ever re-reads the raw shape.
*/

var (
	jobIdPaths      = []string{"job_id", "jobId", "id"}
	ligandNamePaths = []string{"ligand_name", "ligandName", "name", "input_data.ligand_name"}
	smilesPaths     = []string{"smiles", "ligand_smiles", "input_data.smiles"}
	statusPaths     = []string{"status", "job_status", "state"}

	affinityPaths         = []string{"affinity_value", "affinity.value", "raw_result.affinity.affinity_pred_value", "raw_modal_result.affinity.affinity_pred_value"}
	affinityProbPaths     = []string{"affinity_probability", "affinity.probability", "raw_result.affinity.affinity_probability_binary"}
	iptmPaths             = []string{"iptm", "confidence.iptm", "raw_result.confidence.iptm"}
	confidencePaths       = []string{"confidence_score", "confidence.confidence_score", "raw_result.confidence.confidence_score"}
	plddtPaths            = []string{"plddt", "confidence.complex_plddt", "raw_result.confidence.complex_plddt"}
	structureQualityPaths = []string{"structure_quality", "quality.structure_score", "raw_result.structure_quality.score"}

	// up to three independently reported ensemble affinity values
	ensembleArrayPaths  = []string{"ensemble_values", "affinity.ensemble_values", "raw_result.affinity.ensemble_values"}
	ensembleScalarPaths = [][]string{
		{"affinity_pred_value1", "affinity.value1", "raw_result.affinity.affinity_pred_value1"},
		{"affinity_pred_value2", "affinity.value2", "raw_result.affinity.affinity_pred_value2"},
		{"affinity_pred_value3", "affinity.value3", "raw_result.affinity.affinity_pred_value3"},
	}
)

// NormalizeJobResult flattens one raw per-job result into the canonical
// record. It never fails: unreadable fields degrade to nil/defaults.
func NormalizeJobResult(index int, rawResult map[string]interface{}) models.JobMetrics {
	container, consumeErr := gabs.Consume(rawResult)
	if consumeErr != nil || container == nil {
		// unreadable entry; keep a placeholder so counts still line up
		return models.JobMetrics{
			JobId:      fmt.Sprintf("unknown_%d", index+1),
			LigandName: fmt.Sprintf("Ligand_%d", index+1),
			Status:     "unknown",
		}
	}

	metrics := models.JobMetrics{
		JobId:      firstString(container, jobIdPaths),
		LigandName: firstString(container, ligandNamePaths),
		Smiles:     firstString(container, smilesPaths),
		Status:     firstString(container, statusPaths),

		Affinity:         firstFloat(container, affinityPaths),
		AffinityProb:     firstFloat(container, affinityProbPaths),
		Iptm:             firstFloat(container, iptmPaths),
		Confidence:       firstFloat(container, confidencePaths),
		Plddt:            firstFloat(container, plddtPaths),
		StructureQuality: firstFloat(container, structureQualityPaths),
	}

	if metrics.JobId == "" {
		metrics.JobId = fmt.Sprintf("unknown_%d", index+1)
	}
	if metrics.LigandName == "" {
		metrics.LigandName = fmt.Sprintf("Ligand_%d", index+1)
	}

	metrics.EnsembleValues = gatherEnsembleValues(container)
	metrics.EnsembleSD = CalculateEnsembleSD(metrics.EnsembleValues)

	return metrics
}

func gatherEnsembleValues(container *gabs.Container) []float64 {
	// a reported array wins outright
	for _, path := range ensembleArrayPaths {
		if !container.ExistsP(path) {
			continue
		}
		children, childrenErr := container.Path(path).Children()
		if childrenErr != nil {
			continue
		}
		var values []float64
		for _, child := range children {
			if value, ok := child.Data().(float64); ok {
				values = append(values, value)
			}
		}
		if len(values) > 0 {
			return values
		}
	}

	// otherwise assemble from the individually reported scalars
	var values []float64
	for _, paths := range ensembleScalarPaths {
		if value := firstFloat(container, paths); value != nil {
			values = append(values, *value)
		}
	}
	return values
}

func firstString(container *gabs.Container, paths []string) string {
	for _, path := range paths {
		if !container.ExistsP(path) {
			continue
		}
		if value, ok := container.Path(path).Data().(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func firstFloat(container *gabs.Container, paths []string) *float64 {
	for _, path := range paths {
		if !container.ExistsP(path) {
			continue
		}
		switch value := container.Path(path).Data().(type) {
		case float64:
			v := value
			return &v
		case int:
			v := float64(value)
			return &v
		}
	}
	return nil
}
