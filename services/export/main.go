package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"boltzmon/api/models/constants/triage"
	"boltzmon/api/models/dtos"
)

/*
	Client-side exports generated entirely from already-fetched data;
	none of these round-trips back to the prediction backend except the
	structure bundle, which downloads the CIF files it zips.
*/

// CifSource is the one download call the bundle needs.
type CifSource interface {
	DownloadJobCif(ctx context.Context, batchId string, jobId string) ([]byte, error)
}

func formatOptionalMetric(value *float64) string {
	if value == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", *value)
}

// WriteResultsCsv renders the per-job dashboard rows as a
// comma-delimited summary with quoted text fields.
func WriteResultsCsv(dashboard *dtos.DashboardStatisticsDto) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"job_id", "ligand_name", "smiles", "status",
		"affinity", "iptm", "confidence", "plddt", "structure_quality",
		"ensemble_sd", "triage_bucket", "triage_label", "evidence_strength",
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, job := range dashboard.Jobs {
		row := []string{
			job.JobId,
			job.LigandName,
			job.Smiles,
			job.Status,
			formatOptionalMetric(job.Affinity),
			formatOptionalMetric(job.Iptm),
			formatOptionalMetric(job.Confidence),
			formatOptionalMetric(job.Plddt),
			formatOptionalMetric(job.StructureQuality),
			fmt.Sprintf("%.4f", job.EnsembleSD),
			string(job.Bucket),
			job.BucketLabel,
			fmt.Sprintf("%.4f", job.EvidenceStrength),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// WriteExecutiveSummary renders a plain-text digest of one screening.
func WriteExecutiveSummary(batchName string, dashboard *dtos.DashboardStatisticsDto) []byte {
	var sb strings.Builder

	sb.WriteString("BOLTZ-2 SCREENING EXECUTIVE SUMMARY\n")
	sb.WriteString("===================================\n\n")
	sb.WriteString(fmt.Sprintf("Batch      : %s (%s)\n", batchName, dashboard.BatchId))
	sb.WriteString(fmt.Sprintf("Generated  : %s\n\n", dashboard.GeneratedAt.Format(time.RFC3339)))

	if !dashboard.HasData {
		sb.WriteString("No completed jobs were available for aggregation.\n")
		return []byte(sb.String())
	}

	sb.WriteString(fmt.Sprintf("Results    : %d fetched, %d completed, %d excluded\n",
		dashboard.TotalResults, dashboard.CompletedJobs, dashboard.ExcludedJobs))
	sb.WriteString(fmt.Sprintf("Hit rate   : %.1f%% (%d high priority of %d)\n",
		dashboard.HitRate*100, dashboard.TriageCounts[string(triage.Green)], dashboard.CompletedJobs))
	sb.WriteString(fmt.Sprintf("Triage     : %d green / %d yellow / %d red\n",
		dashboard.TriageCounts[string(triage.Green)],
		dashboard.TriageCounts[string(triage.Yellow)],
		dashboard.TriageCounts[string(triage.Red)]))
	sb.WriteString(fmt.Sprintf("Mean evidence strength : %.3f\n\n", dashboard.MeanEvidenceStrength))

	if affinityPercentiles, found := dashboard.Percentiles["affinity"]; found {
		sb.WriteString(fmt.Sprintf("Affinity percentiles : P25 %.3f / P50 %.3f / P75 %.3f / P90 %.3f\n\n",
			affinityPercentiles.P25, affinityPercentiles.P50, affinityPercentiles.P75, affinityPercentiles.P90))
	}

	// strongest candidates first
	greens := make([]dtos.TriagedJobDto, 0)
	for _, job := range dashboard.Jobs {
		if job.Bucket == triage.Green {
			greens = append(greens, job)
		}
	}
	sort.Slice(greens, func(i, j int) bool {
		return greens[i].EvidenceStrength > greens[j].EvidenceStrength
	})

	sb.WriteString("TOP CANDIDATES\n")
	if len(greens) == 0 {
		sb.WriteString("  (none classified high priority)\n")
	}
	for rank, job := range greens {
		if rank == 10 {
			break
		}
		sb.WriteString(fmt.Sprintf("  %2d. %-24s %s (evidence %.3f)\n",
			rank+1, job.LigandName, formatOptionalMetric(job.Affinity), job.EvidenceStrength))
	}

	return []byte(sb.String())
}

// BuildStructureBundle downloads the CIF file of every triaged job
// concurrently (bounded fan-out, joined before zipping) and returns a
// zip archive. Per-job download failures are recorded in a
// download_errors.txt member instead of failing the bundle.
func BuildStructureBundle(ctx context.Context, source CifSource, batchId string,
	dashboard *dtos.DashboardStatisticsDto, maxConcurrent int) ([]byte, error) {

	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	type downloadedCif struct {
		fileName string
		payload  []byte
	}

	var (
		mux         sync.Mutex
		files       []downloadedCif
		failureLogs []string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrent)

	for _, job := range dashboard.Jobs {
		job := job
		group.Go(func() error {
			payload, downloadErr := source.DownloadJobCif(groupCtx, batchId, job.JobId)

			mux.Lock()
			defer mux.Unlock()
			if downloadErr != nil {
				// record the failure and keep going; one bad structure never sinks the bundle
				failureLogs = append(failureLogs,
					fmt.Sprintf("%s (%s): %v", job.LigandName, job.JobId, downloadErr))
				return nil
			}
			files = append(files, downloadedCif{
				fileName: fmt.Sprintf("%s_%s.cif", sanitizeFileName(job.LigandName), job.JobId),
				payload:  payload,
			})
			return nil
		})
	}

	if waitErr := group.Wait(); waitErr != nil {
		return nil, waitErr
	}

	// deterministic member order
	sort.Slice(files, func(i, j int) bool { return files[i].fileName < files[j].fileName })

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for _, file := range files {
		member, memberErr := zipWriter.Create(file.fileName)
		if memberErr != nil {
			return nil, memberErr
		}
		if _, writeErr := member.Write(file.payload); writeErr != nil {
			return nil, writeErr
		}
	}

	if len(failureLogs) > 0 {
		sort.Strings(failureLogs)
		member, memberErr := zipWriter.Create("download_errors.txt")
		if memberErr != nil {
			return nil, memberErr
		}
		if _, writeErr := member.Write([]byte(strings.Join(failureLogs, "\n") + "\n")); writeErr != nil {
			return nil, writeErr
		}
	}

	if closeErr := zipWriter.Close(); closeErr != nil {
		return nil, closeErr
	}

	return buf.Bytes(), nil
}

func sanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if cleaned == "" {
		cleaned = "structure"
	}
	return cleaned
}
