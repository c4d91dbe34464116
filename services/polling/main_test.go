package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"boltzmon/api/models"
	"boltzmon/api/models/constants"
	batchStatus "boltzmon/api/models/constants/batch-status"
	pollerState "boltzmon/api/models/constants/poller-state"
)

// scriptedSource replays a fixed status sequence, repeating the last
// entry once exhausted. A nil entry simulates a transport failure.
type scriptedSource struct {
	mux      sync.Mutex
	sequence []*models.BatchStatus
	calls    int
}

func (s *scriptedSource) GetBatchStatus(ctx context.Context, batchId string) (*models.BatchStatus, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	index := s.calls
	if index >= len(s.sequence) {
		index = len(s.sequence) - 1
	}
	s.calls++

	entry := s.sequence[index]
	if entry == nil {
		return nil, errors.New("connection refused")
	}
	return entry, nil
}

func statusOf(status constants.BatchStatus, completed int, total int) *models.BatchStatus {
	return &models.BatchStatus{
		BatchId: "batch-1",
		Status:  status,
		Progress: models.BatchProgress{
			Total:     total,
			Completed: completed,
		},
	}
}

func testConfig() *models.Config {
	var cfg models.Config
	cfg.Monitor.PollIntervalSeconds = 10
	cfg.Monitor.PollAttemptCeiling = 600
	return &cfg
}

// newStartedPoller drives transitions by calling Tick directly; the
// scheduler interval is long enough to never fire during a test.
func newStartedPoller(t *testing.T, source StatusSource, cfg *models.Config, onTerminal func(TerminalOutcome)) *Poller {
	p := NewPoller("batch-1", source, cfg, onTerminal)
	assert.Equal(t, pollerState.Idle, p.State())
	assert.Nil(t, p.Start())
	t.Cleanup(p.Cancel)
	return p
}

func TestPollerCompletes(t *testing.T) {
	source := &scriptedSource{sequence: []*models.BatchStatus{
		statusOf(batchStatus.Pending, 0, 4),
		statusOf(batchStatus.Running, 1, 4),
		statusOf(batchStatus.Running, 3, 4),
		statusOf(batchStatus.Completed, 4, 4),
	}}

	terminalCalls := 0
	var lastOutcome TerminalOutcome
	p := newStartedPoller(t, source, testConfig(), func(outcome TerminalOutcome) {
		terminalCalls++
		lastOutcome = outcome
	})

	assert.Equal(t, pollerState.Polling, p.State())

	// pending and running snapshots keep the poller polling
	p.Tick()
	assert.Equal(t, pollerState.Polling, p.State())
	assert.Equal(t, batchStatus.Pending, p.Snapshot().Status)

	p.Tick()
	p.Tick()
	assert.Equal(t, pollerState.Polling, p.State())
	assert.Equal(t, 3, p.Snapshot().Progress.Completed)
	assert.Equal(t, 0, terminalCalls)

	// the completed response transitions to terminal exactly once
	p.Tick()
	assert.Equal(t, pollerState.Terminal, p.State())
	assert.Equal(t, 1, terminalCalls)
	assert.True(t, lastOutcome.Succeeded())
	assert.False(t, lastOutcome.TimedOut)

	// extra ticks after terminal are no-ops: still exactly one callback
	p.Tick()
	p.Tick()
	assert.Equal(t, 1, terminalCalls)
	assert.Equal(t, 4, source.calls)
}

func TestPollerServerReportedFailure(t *testing.T) {
	source := &scriptedSource{sequence: []*models.BatchStatus{
		statusOf(batchStatus.Running, 0, 2),
		statusOf(batchStatus.Failed, 0, 2),
	}}

	var lastOutcome TerminalOutcome
	p := newStartedPoller(t, source, testConfig(), func(outcome TerminalOutcome) {
		lastOutcome = outcome
	})

	p.Tick()
	p.Tick()

	assert.Equal(t, pollerState.Terminal, p.State())
	assert.False(t, lastOutcome.Succeeded())
	assert.False(t, lastOutcome.TimedOut)
	assert.Equal(t, batchStatus.Failed, lastOutcome.Status)
	assert.NotNil(t, lastOutcome.Err)
}

func TestPollerSoftFailsOnTransportErrors(t *testing.T) {
	source := &scriptedSource{sequence: []*models.BatchStatus{
		nil,
		nil,
		statusOf(batchStatus.Completed, 1, 1),
	}}

	terminalCalls := 0
	p := newStartedPoller(t, source, testConfig(), func(outcome TerminalOutcome) {
		terminalCalls++
	})

	// transport failures are counted but do not change state
	p.Tick()
	p.Tick()
	assert.Equal(t, pollerState.Polling, p.State())
	assert.Equal(t, 2, p.TransportFailures())
	assert.Nil(t, p.Snapshot())

	p.Tick()
	assert.Equal(t, pollerState.Terminal, p.State())
	assert.Equal(t, 1, terminalCalls)
}

func TestPollerTimesOutAtAttemptCeiling(t *testing.T) {
	source := &scriptedSource{sequence: []*models.BatchStatus{
		statusOf(batchStatus.Running, 0, 100),
	}}

	cfg := testConfig()
	cfg.Monitor.PollAttemptCeiling = 600

	var lastOutcome TerminalOutcome
	terminalCalls := 0
	p := newStartedPoller(t, source, cfg, func(outcome TerminalOutcome) {
		terminalCalls++
		lastOutcome = outcome
	})

	// 600 running responses exhaust the ceiling on the 601st attempt
	for i := 0; i < 601; i++ {
		p.Tick()
	}

	assert.Equal(t, pollerState.Terminal, p.State())
	assert.Equal(t, 1, terminalCalls)

	// the client giving up is reported distinctly from a server-side failure
	assert.True(t, lastOutcome.TimedOut)
	assert.True(t, errors.Is(lastOutcome.Err, ErrPollCeilingExceeded))
	assert.NotEqual(t, batchStatus.Failed, lastOutcome.Status)
	assert.Equal(t, 600, source.calls)
}

func TestPollerCancellation(t *testing.T) {
	source := &scriptedSource{sequence: []*models.BatchStatus{
		statusOf(batchStatus.Running, 0, 2),
	}}

	terminalCalls := 0
	p := newStartedPoller(t, source, testConfig(), func(outcome TerminalOutcome) {
		terminalCalls++
	})

	p.Tick()
	assert.Equal(t, pollerState.Polling, p.State())

	p.Cancel()
	assert.Equal(t, pollerState.Terminal, p.State())

	// ticks after teardown never reach the source or fire the callback
	p.Tick()
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 0, terminalCalls)

	// idempotent
	p.Cancel()
}

func TestPollerCannotStartTwice(t *testing.T) {
	source := &scriptedSource{sequence: []*models.BatchStatus{
		statusOf(batchStatus.Running, 0, 1),
	}}

	p := NewPoller("batch-1", source, testConfig(), nil)
	assert.Nil(t, p.Start())
	defer p.Cancel()

	startErr := p.Start()
	assert.NotNil(t, startErr)
	assert.Equal(t, fmt.Sprintf("poller for batch %s already started", p.BatchId), startErr.Error())
}
