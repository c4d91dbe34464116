package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/google/uuid"

	"boltzmon/api/models"
	pollerState "boltzmon/api/models/constants/poller-state"
	"boltzmon/api/models/dtos"
	esRepo "boltzmon/api/repositories/elasticsearch"
	"boltzmon/api/services/aggregation"
	"boltzmon/api/services/boltz"
	"boltzmon/api/services/polling"
)

type (
	// MonitorService owns the full submit -> poll -> aggregate ->
	// archive lifecycle for every tracked batch.
	MonitorService struct {
		Initialized bool
		Config      *models.Config
		BoltzClient *boltz.Client
		Es7Client   *es7.Client

		TrackedBatchMap    map[string]*TrackedBatch
		TrackedBatchMapMux sync.RWMutex
	}

	TrackedBatch struct {
		BatchId     string
		BatchName   string
		SubmittedAt time.Time

		Poller *polling.Poller

		mux       sync.RWMutex
		dashboard *dtos.DashboardStatisticsDto
		results   []map[string]interface{}
	}
)

func NewMonitorService(boltzClient *boltz.Client, es *es7.Client, cfg *models.Config) *MonitorService {
	mz := &MonitorService{
		Initialized:     false,
		Config:          cfg,
		BoltzClient:     boltzClient,
		Es7Client:       es,
		TrackedBatchMap: map[string]*TrackedBatch{},
	}

	mz.Initialized = true
	fmt.Println("Monitor Service Initialized ..")

	return mz
}

// SubmitAndTrack sends one batch-creation request and, on success,
// starts polling it. A dropped submission is not retried here; the
// caller resubmits manually.
func (mz *MonitorService) SubmitAndTrack(ctx context.Context, proteinSequence string, ligands []models.LigandRecord,
	batchName string, maxConcurrent int, parameters map[string]interface{}) (*TrackedBatch, error) {

	if batchName == "" {
		batchName = fmt.Sprintf("screening_%s", uuid.NewString()[0:8])
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	submission := &models.BatchSubmission{
		ModelId:         mz.Config.Boltz.ModelId,
		ProteinSequence: proteinSequence,
		Ligands:         ligands,
		BatchName:       batchName,
		MaxConcurrent:   maxConcurrent,
		Parameters:      parameters,
	}

	batchId, submitErr := mz.BoltzClient.SubmitBatch(ctx, submission)
	if submitErr != nil {
		return nil, submitErr
	}

	tracked := &TrackedBatch{
		BatchId:     batchId,
		BatchName:   batchName,
		SubmittedAt: time.Now(),
	}
	tracked.Poller = polling.NewPoller(batchId, mz.BoltzClient, mz.Config, func(outcome polling.TerminalOutcome) {
		mz.handleTerminal(tracked, outcome)
	})

	mz.TrackedBatchMapMux.Lock()
	mz.TrackedBatchMap[batchId] = tracked
	mz.TrackedBatchMapMux.Unlock()

	if startErr := tracked.Poller.Start(); startErr != nil {
		return nil, startErr
	}

	fmt.Printf("[%s] - Tracking batch %s (%s) with %d ligands\n",
		time.Now(), batchId, batchName, len(ligands))

	return tracked, nil
}

// handleTerminal runs once per batch, on the polling -> terminal
// transition. Only a server-reported completion triggers the result
// fetch; failure, cancellation and client-side timeout do not.
func (mz *MonitorService) handleTerminal(tracked *TrackedBatch, outcome polling.TerminalOutcome) {
	if !outcome.Succeeded() {
		if outcome.TimedOut {
			fmt.Printf("[%s] - Batch %s : gave up waiting : %v\n", time.Now(), tracked.BatchId, outcome.Err)
		} else {
			fmt.Printf("[%s] - Batch %s ended without results : %v\n", time.Now(), tracked.BatchId, outcome.Err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(mz.Config.Boltz.RequestTimeoutSeconds*2)*time.Second)
	defer cancel()

	rawResults, fetchErr := mz.BoltzClient.FetchBatchResults(ctx, tracked.BatchId, mz.Config.Monitor.ResultsPageSize)
	if fetchErr != nil {
		fmt.Printf("[%s] - Batch %s completed but results fetch failed : %v\n", time.Now(), tracked.BatchId, fetchErr)
		return
	}

	// the result count and the polled progress.total can disagree while
	// the backend's metadata and per-job storage converge; aggregate
	// whatever arrived
	if snapshot := tracked.Poller.Snapshot(); snapshot != nil && snapshot.Progress.Total != len(rawResults) {
		fmt.Printf("[%s] - Batch %s : %d results for progress.total %d, aggregating anyway\n",
			time.Now(), tracked.BatchId, len(rawResults), snapshot.Progress.Total)
	}

	dashboard := aggregation.Aggregate(tracked.BatchId, rawResults)

	tracked.mux.Lock()
	tracked.results = rawResults
	tracked.dashboard = dashboard
	tracked.mux.Unlock()

	fmt.Printf("[%s] - Batch %s aggregated : %d completed jobs, hit rate %.2f\n",
		time.Now(), tracked.BatchId, dashboard.CompletedJobs, dashboard.HitRate)

	if mz.Config.Elasticsearch.ArchiveEnabled && mz.Es7Client != nil {
		archiveErr := esRepo.ArchiveScreening(mz.Es7Client, mz.Config, tracked.BatchName, dashboard)
		if archiveErr != nil {
			// archival is best-effort; the dashboard stays served from memory
			fmt.Printf("[%s] - Batch %s archive write failed : %v\n", time.Now(), tracked.BatchId, archiveErr)
		}
	}
}

func (mz *MonitorService) GetTrackedBatch(batchId string) (*TrackedBatch, bool) {
	mz.TrackedBatchMapMux.RLock()
	defer mz.TrackedBatchMapMux.RUnlock()

	tracked, found := mz.TrackedBatchMap[batchId]
	return tracked, found
}

func (mz *MonitorService) AllTrackedBatches() []*TrackedBatch {
	mz.TrackedBatchMapMux.RLock()
	defer mz.TrackedBatchMapMux.RUnlock()

	all := make([]*TrackedBatch, 0, len(mz.TrackedBatchMap))
	for _, tracked := range mz.TrackedBatchMap {
		all = append(all, tracked)
	}
	return all
}

// StopTracking cancels polling for a batch. The backend is untouched;
// this is a client-side teardown only.
func (mz *MonitorService) StopTracking(batchId string) bool {
	mz.TrackedBatchMapMux.RLock()
	tracked, found := mz.TrackedBatchMap[batchId]
	mz.TrackedBatchMapMux.RUnlock()

	if !found {
		return false
	}

	tracked.Poller.Cancel()
	fmt.Printf("[%s] - Stopped tracking batch %s\n", time.Now(), batchId)
	return true
}

// Dashboard returns the aggregated statistics, recomputing only when a
// caller forces it (the job set only changes when results are refetched).
func (tb *TrackedBatch) Dashboard() *dtos.DashboardStatisticsDto {
	tb.mux.RLock()
	defer tb.mux.RUnlock()
	return tb.dashboard
}

func (tb *TrackedBatch) RawResults() []map[string]interface{} {
	tb.mux.RLock()
	defer tb.mux.RUnlock()
	return tb.results
}

func (tb *TrackedBatch) Snapshot() dtos.BatchSnapshotDto {
	snapshot := dtos.BatchSnapshotDto{
		BatchId:           tb.BatchId,
		BatchName:         tb.BatchName,
		SubmittedAt:       tb.SubmittedAt,
		PollerState:       tb.Poller.State(),
		PollAttempts:      tb.Poller.Attempts(),
		TransportFailures: tb.Poller.TransportFailures(),
		LastStatus:        tb.Poller.Snapshot(),
	}

	if outcome := tb.Poller.Outcome(); outcome != nil {
		snapshot.TimedOut = outcome.TimedOut
		if outcome.Err != nil {
			snapshot.TerminalError = outcome.Err.Error()
		}
	} else if snapshot.PollerState == pollerState.Terminal {
		// cancelled by the consumer before any terminal outcome
		snapshot.TerminalError = "tracking stopped by client"
	}

	return snapshot
}
