package models

import (
	"boltzmon/api/models/constants"
)

// LigandRecord is one parsed row of a delimited ligand upload.
// Immutable once parsed.
type LigandRecord struct {
	Name   string `json:"name"`
	Smiles string `json:"smiles"`
}

// BatchSubmission is the request body sent verbatim to the
// prediction backend; constructed once per submit action.
type BatchSubmission struct {
	ModelId         string                 `json:"model_id"`
	ProteinSequence string                 `json:"protein_sequence"`
	Ligands         []LigandRecord         `json:"ligands"`
	BatchName       string                 `json:"batch_name"`
	MaxConcurrent   int                    `json:"max_concurrent"`
	Parameters      map[string]interface{} `json:"parameters,omitempty"`
}

type BatchProgress struct {
	Total              int     `json:"total"`
	Completed          int     `json:"completed"`
	Failed             int     `json:"failed"`
	Running            int     `json:"running"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// BatchStatus is one polled snapshot; every poll replaces the
// previous snapshot wholesale, there is no incremental merge.
type BatchStatus struct {
	BatchId  string                 `json:"batch_id"`
	Status   constants.BatchStatus  `json:"status"`
	Progress BatchProgress          `json:"progress"`
	Insights map[string]interface{} `json:"insights,omitempty"`
}

// JobMetrics is the canonical per-job record produced by normalizing
// a raw backend result exactly once at ingestion. The backend reports
// the same logical fields under several JSON paths depending on API
// version; nothing downstream of normalization re-reads the raw shape.
// Optional metrics are nil when absent from every known path.
type JobMetrics struct {
	JobId      string `json:"jobId"`
	LigandName string `json:"ligandName"`
	Smiles     string `json:"smiles"`
	Status     string `json:"status"`

	Affinity         *float64 `json:"affinity,omitempty"`
	AffinityProb     *float64 `json:"affinityProbability,omitempty"`
	Iptm             *float64 `json:"iptm,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	Plddt            *float64 `json:"plddt,omitempty"`
	StructureQuality *float64 `json:"structureQuality,omitempty"`

	// up to three independently reported affinity values
	EnsembleValues []float64 `json:"ensembleValues,omitempty"`
	EnsembleSD     float64   `json:"ensembleSd"`
}
