package aggregation

import (
	"math"
	"time"

	linq "github.com/ahmetb/go-linq"

	"boltzmon/api/models"
	"boltzmon/api/models/constants"
	"boltzmon/api/models/constants/triage"
	"boltzmon/api/models/dtos"
	"boltzmon/api/utils"
)

/*
	Derived-statistics computation for the screening dashboard.
	Everything here is a display hint computed from fetched results;
	nothing is authoritative, and nothing throws for missing fields —
	every metric degrades to a safe default instead.
*/

// statuses excluded from aggregation; anything else is treated as
// completed-like. The backend status vocabulary has drifted across API
// versions (e.g. "completed_reconstructed"), so this is deliberately an
// allow-by-exclusion rule rather than a closed enum.
var excludedStatuses = []string{"failed", "pending", "running"}

func isCompletedLike(status string) bool {
	return !utils.StringInSlice(status, excludedStatuses)
}

// CalculateEnsembleSD : population standard deviation over whatever
// ensemble values are present; fewer than two present values is
// defined as zero spread.
func CalculateEnsembleSD(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return populationSD(values)
}

func populationSD(values []float64) float64 {
	m := mean(values)
	var sumSquares float64
	for _, value := range values {
		sumSquares += (value - m) * (value - m)
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}

// NearestRankPercentile expects an ascending-sorted slice.
func NearestRankPercentile(sorted []float64, percentile float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(percentile / 100.0 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func percentileSet(values []float64) dtos.PercentileSetDto {
	if len(values) == 0 {
		return dtos.PercentileSetDto{}
	}

	// value-sorted copy; the caller's slice is left alone
	var sorted []float64
	linq.From(values).OrderByT(func(value float64) float64 { return value }).ToSlice(&sorted)

	return dtos.PercentileSetDto{
		P25: NearestRankPercentile(sorted, 25),
		P50: NearestRankPercentile(sorted, 50),
		P75: NearestRankPercentile(sorted, 75),
		P90: NearestRankPercentile(sorted, 90),
	}
}

// present collects the non-nil values of one optional metric
func present(jobs []models.JobMetrics, pick func(models.JobMetrics) *float64) []float64 {
	var values []float64
	for _, job := range jobs {
		if value := pick(job); value != nil {
			values = append(values, *value)
		}
	}
	return values
}

func zScore(value float64, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sd := populationSD(values)
	if sd == 0 {
		return 0
	}
	return (value - mean(values)) / sd
}

// Aggregate recomputes the full dashboard statistics from scratch.
// Percentiles and triage are batch-relative, so any change to the
// underlying job set requires a fresh pass; nothing here is cached.
func Aggregate(batchId string, rawResults []map[string]interface{}) *dtos.DashboardStatisticsDto {
	statistics := &dtos.DashboardStatisticsDto{
		BatchId:      batchId,
		GeneratedAt:  time.Now(),
		TotalResults: len(rawResults),
	}

	normalized := make([]models.JobMetrics, 0, len(rawResults))
	for index, rawResult := range rawResults {
		normalized = append(normalized, NormalizeJobResult(index, rawResult))
	}

	var completed []models.JobMetrics
	linq.From(normalized).
		WhereT(func(job models.JobMetrics) bool { return isCompletedLike(job.Status) }).
		ToSlice(&completed)

	statistics.CompletedJobs = len(completed)
	statistics.ExcludedJobs = len(normalized) - len(completed)

	if len(completed) == 0 {
		// an explicit "no data" result, distinct from a computation error
		statistics.HasData = false
		return statistics
	}
	statistics.HasData = true

	affinities := present(completed, func(j models.JobMetrics) *float64 { return j.Affinity })
	iptms := present(completed, func(j models.JobMetrics) *float64 { return j.Iptm })
	confidences := present(completed, func(j models.JobMetrics) *float64 { return j.Confidence })
	plddts := present(completed, func(j models.JobMetrics) *float64 { return j.Plddt })
	qualities := present(completed, func(j models.JobMetrics) *float64 { return j.StructureQuality })

	var spreads []float64
	linq.From(completed).
		SelectT(func(job models.JobMetrics) float64 { return job.EnsembleSD }).
		ToSlice(&spreads)

	statistics.Percentiles = map[string]dtos.PercentileSetDto{
		"affinity":         percentileSet(affinities),
		"iptm":             percentileSet(iptms),
		"confidence":       percentileSet(confidences),
		"ensembleSd":       percentileSet(spreads),
		"plddt":            percentileSet(plddts),
		"structureQuality": percentileSet(qualities),
	}

	affinityP75 := statistics.Percentiles["affinity"].P75
	iptmP50 := statistics.Percentiles["iptm"].P50
	spreadP25 := statistics.Percentiles["ensembleSd"].P25

	statistics.TriageCounts = map[string]int{
		string(triage.Green):  0,
		string(triage.Yellow): 0,
		string(triage.Red):    0,
	}

	var evidenceSum float64
	statistics.Jobs = make([]dtos.TriagedJobDto, 0, len(completed))
	for _, job := range completed {
		bucket := classify(job, affinityP75, iptmP50, spreadP25)
		evidence := evidenceStrength(job, affinities, iptms, spreads)
		evidenceSum += evidence

		statistics.TriageCounts[string(bucket)]++
		statistics.Jobs = append(statistics.Jobs, dtos.TriagedJobDto{
			JobMetrics:       job,
			Bucket:           bucket,
			BucketLabel:      triage.Label(bucket),
			EvidenceStrength: evidence,
		})
	}

	statistics.HitRate = float64(statistics.TriageCounts[string(triage.Green)]) / float64(len(completed))
	statistics.MeanEvidenceStrength = evidenceSum / float64(len(completed))

	return statistics
}

// classify applies the fixed triage decision policy for one job
// against the batch-wide percentiles.
func classify(job models.JobMetrics, affinityP75 float64, iptmP50 float64, spreadP25 float64) constants.TriageBucket {
	iptmFloor := math.Max(0.60, iptmP50)

	strongAffinity := job.Affinity != nil && *job.Affinity >= affinityP75
	confidentInterface := job.Iptm != nil && *job.Iptm >= iptmFloor
	tightEnsemble := job.EnsembleSD <= spreadP25
	soundStructure := job.StructureQuality == nil || *job.StructureQuality >= 0.60

	if strongAffinity && confidentInterface && tightEnsemble && soundStructure {
		return triage.Green
	}

	// strong affinity whose pose evidence fails: worth a manual look
	if strongAffinity {
		return triage.Yellow
	}

	if job.Affinity != nil && *job.Affinity < affinityP75 {
		return triage.Red
	}
	if job.Iptm != nil && *job.Iptm < iptmP50 {
		return triage.Red
	}
	if job.StructureQuality != nil && *job.StructureQuality < 0.50 {
		return triage.Red
	}

	// e.g. missing affinity matching no rule above
	return triage.Yellow
}

// evidenceStrength : z(affinity) + z(iptm) - z(ensemble spread),
// each against the batch's own mean and standard deviation. A missing
// metric contributes zero rather than sinking the composite.
func evidenceStrength(job models.JobMetrics, affinities []float64, iptms []float64, spreads []float64) float64 {
	var strength float64
	if job.Affinity != nil {
		strength += zScore(*job.Affinity, affinities)
	}
	if job.Iptm != nil {
		strength += zScore(*job.Iptm, iptms)
	}
	strength -= zScore(job.EnsembleSD, spreads)
	return strength
}
