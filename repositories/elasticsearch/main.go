package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/elastic/go-elasticsearch/v7/esutil"
	"github.com/mitchellh/mapstructure"

	"boltzmon/api/models"
	"boltzmon/api/models/dtos"
	"boltzmon/api/utils"
)

const (
	screeningsIndex    = "boltzmon-screenings"
	screeningJobsIndex = "boltzmon-screening-jobs"
)

/*
	Archival layer: one summary document per completed screening batch
	plus one triaged document per job, for cross-batch search. The
	monitor works fully with archiving disabled; everything here is
	best-effort enrichment.
*/

type screeningSummaryDocument struct {
	BatchId              string         `json:"batch_id"`
	BatchName            string         `json:"batch_name"`
	ArchivedAt           time.Time      `json:"archived_at"`
	CompletedJobs        int            `json:"completed_jobs"`
	ExcludedJobs         int            `json:"excluded_jobs"`
	HitRate              float64        `json:"hit_rate"`
	MeanEvidenceStrength float64        `json:"mean_evidence_strength"`
	TriageCounts         map[string]int `json:"triage_counts"`
}

type screeningJobDocument struct {
	BatchId          string   `json:"batch_id"`
	BatchName        string   `json:"batch_name"`
	JobId            string   `json:"job_id"`
	LigandName       string   `json:"ligand_name"`
	Smiles           string   `json:"smiles"`
	Affinity         *float64 `json:"affinity,omitempty"`
	Iptm             *float64 `json:"iptm,omitempty"`
	EnsembleSd       float64  `json:"ensemble_sd"`
	TriageBucket     string   `json:"triage_bucket"`
	EvidenceStrength float64  `json:"evidence_strength"`
}

// ArchiveScreening writes the batch summary document and bulk-indexes
// the per-job triage documents.
func ArchiveScreening(es *elasticsearch.Client, cfg *models.Config, batchName string, dashboard *dtos.DashboardStatisticsDto) error {
	summary := screeningSummaryDocument{
		BatchId:              dashboard.BatchId,
		BatchName:            batchName,
		ArchivedAt:           time.Now(),
		CompletedJobs:        dashboard.CompletedJobs,
		ExcludedJobs:         dashboard.ExcludedJobs,
		HitRate:              dashboard.HitRate,
		MeanEvidenceStrength: dashboard.MeanEvidenceStrength,
		TriageCounts:         dashboard.TriageCounts,
	}

	summaryBytes, marshallErr := json.Marshal(summary)
	if marshallErr != nil {
		return marshallErr
	}

	req := esapi.IndexRequest{
		Index:      screeningsIndex,
		DocumentID: dashboard.BatchId,
		Body:       strings.NewReader(string(summaryBytes)),
		Refresh:    "true",
	}

	res, indexErr := req.Do(context.Background(), es)
	if indexErr != nil {
		return indexErr
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("screening summary index request failed : %s", res.Status())
	}

	return bulkArchiveJobs(es, batchName, dashboard)
}

func bulkArchiveJobs(es *elasticsearch.Client, batchName string, dashboard *dtos.DashboardStatisticsDto) error {
	if len(dashboard.Jobs) == 0 {
		return nil
	}

	bi, biErr := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     es,
		Index:      screeningJobsIndex,
		NumWorkers: 2,
	})
	if biErr != nil {
		return biErr
	}

	for _, job := range dashboard.Jobs {
		document := screeningJobDocument{
			BatchId:          dashboard.BatchId,
			BatchName:        batchName,
			JobId:            job.JobId,
			LigandName:       job.LigandName,
			Smiles:           job.Smiles,
			Affinity:         job.Affinity,
			Iptm:             job.Iptm,
			EnsembleSd:       job.EnsembleSD,
			TriageBucket:     string(job.Bucket),
			EvidenceStrength: job.EvidenceStrength,
		}

		documentBytes, marshallErr := json.Marshal(document)
		if marshallErr != nil {
			continue
		}

		addErr := bi.Add(context.Background(), esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: fmt.Sprintf("%s-%s", dashboard.BatchId, job.JobId),
			Body:       bytes.NewReader(documentBytes),
		})
		if addErr != nil {
			fmt.Printf("[%s] - Failed to queue job document %s : %v\n", time.Now(), job.JobId, addErr)
		}
	}

	if closeErr := bi.Close(context.Background()); closeErr != nil {
		return closeErr
	}

	stats := bi.Stats()
	fmt.Printf("[%s] - Archived %d job documents for batch %s (%d failed)\n",
		time.Now(), stats.NumFlushed, dashboard.BatchId, stats.NumFailed)

	return nil
}

// SearchArchivedJobs queries the per-job archive by "any combination
// of any applicable parameter".
func SearchArchivedJobs(cfg *models.Config, es *elasticsearch.Client,
	batchNameQuery string, triageBucket string, minAffinity *float64, minEvidenceStrength *float64) ([]map[string]interface{}, error) {

	must := make([]map[string]interface{}, 0)

	if batchNameQuery != "" {
		must = append(must, map[string]interface{}{
			"query_string": map[string]string{
				"query": fmt.Sprintf("batch_name:%s*", batchNameQuery),
			},
		})
	}
	if triageBucket != "" {
		must = append(must, map[string]interface{}{
			"query_string": map[string]string{
				"query": fmt.Sprintf("triage_bucket:%s", triageBucket),
			},
		})
	}
	if minAffinity != nil {
		must = append(must, map[string]interface{}{
			"range": map[string]interface{}{
				"affinity": map[string]interface{}{
					"gte": *minAffinity,
				},
			},
		})
	}
	if minEvidenceStrength != nil {
		must = append(must, map[string]interface{}{
			"range": map[string]interface{}{
				"evidence_strength": map[string]interface{}{
					"gte": *minEvidenceStrength,
				},
			},
		})
	}
	// if `must` remains an empty array, this will effectively act as a "wildcard" query

	var buf bytes.Buffer
	query := map[string]interface{}{
		"size": 1000,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{{
					"bool": map[string]interface{}{
						"must": must,
					},
				}},
			},
		},
	}

	// encode the query
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		fmt.Printf("Error encoding query: %s\n", err)
		return nil, err
	}

	// Perform the search request.
	res, searchErr := es.Search(
		es.Search.WithContext(context.Background()),
		es.Search.WithIndex(screeningJobsIndex),
		es.Search.WithBody(&buf),
		es.Search.WithTrackTotalHits(true),
	)
	if searchErr != nil {
		fmt.Printf("Error getting response: %s\n", searchErr)
		return nil, searchErr
	}
	defer res.Body.Close()

	resultString := res.String()
	if cfg.Debug {
		fmt.Println(resultString)
	}

	// response comes back with a preceding '[200 OK] ' which needs trimming
	_, trimmedResult := utils.GetLeadingStringInBetweenSquareBrackets(resultString)

	result := make(map[string]interface{})
	umErr := json.Unmarshal([]byte(trimmedResult), &result)
	if umErr != nil {
		fmt.Printf("Error unmarshalling response: %s\n", umErr)
		return nil, umErr
	}

	return extractHitSources(result), nil
}

// extractHitSources gathers the _source of each search hit.
func extractHitSources(result map[string]interface{}) []map[string]interface{} {
	sources := make([]map[string]interface{}, 0)

	hitsWrapper, ok := result["hits"].(map[string]interface{})
	if !ok {
		return sources
	}

	docsHits := hitsWrapper["hits"]
	allDocHits := []map[string]interface{}{}
	mapstructure.Decode(docsHits, &allDocHits)

	for _, hit := range allDocHits {
		if source, ok := hit["_source"].(map[string]interface{}); ok {
			sources = append(sources, source)
		}
	}

	return sources
}
