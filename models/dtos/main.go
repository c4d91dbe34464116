package dtos

import (
	"time"

	"boltzmon/api/models"
	"boltzmon/api/models/constants"
)

type SubmitBatchRequestDto struct {
	ProteinSequence string `json:"proteinSequence"`
	// raw delimited upload text; parsed server-side when Ligands is empty
	LigandText    string                 `json:"ligandText,omitempty"`
	Ligands       []models.LigandRecord  `json:"ligands,omitempty"`
	BatchName     string                 `json:"batchName,omitempty"`
	MaxConcurrent int                    `json:"maxConcurrent,omitempty"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
}

type BatchCreatedResponseDto struct {
	Status      int            `json:"status"`
	Message     string         `json:"message"`
	BatchId     string         `json:"batchId"`
	BatchName   string         `json:"batchName"`
	LigandCount int            `json:"ligandCount"`
	LineErrors  []LineErrorDto `json:"lineErrors,omitempty"`
}

type LigandValidationRequestDto struct {
	LigandText string `json:"ligandText"`
}

type LigandValidationResponseDto struct {
	Status     int                   `json:"status"`
	Message    string                `json:"message"`
	ValidCount int                   `json:"validCount"`
	Ligands    []models.LigandRecord `json:"ligands"`
	LineErrors []LineErrorDto        `json:"lineErrors,omitempty"`
}

type LineErrorDto struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type BatchSnapshotDto struct {
	BatchId           string                `json:"batchId"`
	BatchName         string                `json:"batchName"`
	SubmittedAt       time.Time             `json:"submittedAt"`
	PollerState       constants.PollerState `json:"pollerState"`
	PollAttempts      int                   `json:"pollAttempts"`
	TransportFailures int                   `json:"transportFailures"`
	LastStatus        *models.BatchStatus   `json:"lastStatus,omitempty"`
	TerminalError     string                `json:"terminalError,omitempty"`
	TimedOut          bool                  `json:"timedOut"`
}

type BatchListResponseDto struct {
	Status  int                `json:"status"`
	Message string             `json:"message"`
	Count   int                `json:"count"`
	Batches []BatchSnapshotDto `json:"batches"`
}

// ---- dashboard statistics

type PercentileSetDto struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

type TriagedJobDto struct {
	models.JobMetrics
	Bucket           constants.TriageBucket `json:"bucket"`
	BucketLabel      string                 `json:"bucketLabel"`
	EvidenceStrength float64                `json:"evidenceStrength"`
}

// DashboardStatisticsDto carries every derived figure the dashboard
// renders. All derived fields are display hints computed client-side
// from fetched results, never authoritative.
type DashboardStatisticsDto struct {
	BatchId     string    `json:"batchId"`
	GeneratedAt time.Time `json:"generatedAt"`

	// distinguishes "zero completed jobs" from a computation error
	HasData bool `json:"hasData"`

	TotalResults  int `json:"totalResults"`
	CompletedJobs int `json:"completedJobs"`
	ExcludedJobs  int `json:"excludedJobs"`

	Percentiles map[string]PercentileSetDto `json:"percentiles,omitempty"`

	Jobs         []TriagedJobDto `json:"jobs,omitempty"`
	TriageCounts map[string]int  `json:"triageCounts,omitempty"`

	HitRate              float64 `json:"hitRate"`
	MeanEvidenceStrength float64 `json:"meanEvidenceStrength"`
}

// ---- errors

type GeneralError struct {
	Message string `json:"message"`
}

type GeneralErrorResponseDto struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Errors    []GeneralError `json:"errors"`
}

// ---- archive

type ArchiveSearchResponseDto struct {
	Status  int                      `json:"status"`
	Message string                   `json:"message"`
	Count   int                      `json:"count"`
	Results []map[string]interface{} `json:"results"`
}
