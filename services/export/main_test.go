package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"boltzmon/api/models"
	"boltzmon/api/models/constants/triage"
	"boltzmon/api/models/dtos"
)

func floatPtr(value float64) *float64 {
	return &value
}

func demoDashboard() *dtos.DashboardStatisticsDto {
	return &dtos.DashboardStatisticsDto{
		BatchId:       "batch-abc",
		GeneratedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		HasData:       true,
		TotalResults:  2,
		CompletedJobs: 2,
		TriageCounts: map[string]int{
			string(triage.Green):  1,
			string(triage.Yellow): 0,
			string(triage.Red):    1,
		},
		HitRate:              0.5,
		MeanEvidenceStrength: 0.1,
		Percentiles: map[string]dtos.PercentileSetDto{
			"affinity": {P25: 0.2, P50: 0.4, P75: 0.6, P90: 0.8},
		},
		Jobs: []dtos.TriagedJobDto{
			{
				JobMetrics: models.JobMetrics{
					JobId:      "j1",
					LigandName: "Aspirin",
					Smiles:     "CC(=O)Oc1ccccc1C(=O)O",
					Status:     "completed",
					Affinity:   floatPtr(0.82),
					Iptm:       floatPtr(0.74),
					EnsembleSD: 0.01,
				},
				Bucket:           triage.Green,
				BucketLabel:      triage.Label(triage.Green),
				EvidenceStrength: 1.25,
			},
			{
				JobMetrics: models.JobMetrics{
					JobId:      "j2",
					LigandName: "Caffeine, pure",
					Smiles:     "CN1C=NC2=C1C(=O)N(C(=O)N2C)C",
					Status:     "completed",
					EnsembleSD: 0.2,
				},
				Bucket:           triage.Red,
				BucketLabel:      triage.Label(triage.Red),
				EvidenceStrength: -0.75,
			},
		},
	}
}

func TestWriteResultsCsv(t *testing.T) {
	csvBytes, csvErr := WriteResultsCsv(demoDashboard())
	assert.Nil(t, csvErr)

	lines := strings.Split(strings.TrimSpace(string(csvBytes)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "job_id,ligand_name,smiles"))
	assert.Contains(t, lines[1], "Aspirin")
	assert.Contains(t, lines[1], "0.8200")
	assert.Contains(t, lines[1], "green")

	// a text field holding a comma comes back quoted
	assert.Contains(t, lines[2], `"Caffeine, pure"`)
	// missing optional metrics render as N/A, never as zeroes
	assert.Contains(t, lines[2], "N/A")
}

func TestWriteExecutiveSummary(t *testing.T) {
	t.Run("renders counts and top candidates", func(t *testing.T) {
		summary := string(WriteExecutiveSummary("demo screen", demoDashboard()))

		assert.Contains(t, summary, "demo screen")
		assert.Contains(t, summary, "batch-abc")
		assert.Contains(t, summary, "Hit rate   : 50.0%")
		assert.Contains(t, summary, "1 green / 0 yellow / 1 red")
		assert.Contains(t, summary, "TOP CANDIDATES")
		assert.Contains(t, summary, "Aspirin")
	})

	t.Run("no-data dashboards get an explicit note", func(t *testing.T) {
		summary := string(WriteExecutiveSummary("empty", &dtos.DashboardStatisticsDto{
			BatchId: "batch-empty",
		}))

		assert.Contains(t, summary, "No completed jobs")
		assert.NotContains(t, summary, "TOP CANDIDATES")
	})
}

// fakeCifSource serves canned structure payloads per job id.
type fakeCifSource struct {
	payloads map[string][]byte
}

func (f *fakeCifSource) DownloadJobCif(ctx context.Context, batchId string, jobId string) ([]byte, error) {
	payload, found := f.payloads[jobId]
	if !found {
		return nil, errors.New("structure not available")
	}
	return payload, nil
}

func TestBuildStructureBundle(t *testing.T) {
	source := &fakeCifSource{payloads: map[string][]byte{
		"j1": []byte("data_aspirin"),
		// j2 deliberately missing
	}}

	zipBytes, bundleErr := BuildStructureBundle(context.Background(), source, "batch-abc", demoDashboard(), 2)
	assert.Nil(t, bundleErr)

	reader, readerErr := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	assert.Nil(t, readerErr)

	memberNames := make([]string, 0)
	for _, file := range reader.File {
		memberNames = append(memberNames, file.Name)
	}

	assert.Contains(t, memberNames, "Aspirin_j1.cif")
	// per-job download failures land in the error log member instead of
	// failing the whole bundle
	assert.Contains(t, memberNames, "download_errors.txt")
	assert.Len(t, memberNames, 2)

	for _, file := range reader.File {
		if file.Name != "download_errors.txt" {
			continue
		}
		opened, openErr := file.Open()
		assert.Nil(t, openErr)
		var content bytes.Buffer
		content.ReadFrom(opened)
		opened.Close()
		assert.Contains(t, content.String(), "j2")
	}
}
