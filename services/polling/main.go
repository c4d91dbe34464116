package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"boltzmon/api/models"
	"boltzmon/api/models/constants"
	batchStatus "boltzmon/api/models/constants/batch-status"
	pollerState "boltzmon/api/models/constants/poller-state"
)

/*
	Per-batch polling state machine over {idle, polling, terminal}.
	Polls are fired on a fixed interval (no exponential backoff) and
	serialized; transport failures are soft (counted, state unchanged).
	The scheduler's Stop is the single cancellation point, and a
	liveness flag keeps any in-flight response from being applied after
	teardown.
*/

// ErrPollCeilingExceeded : the client gave up waiting. Kept distinct
// from a server-reported failed/cancelled status.
var ErrPollCeilingExceeded = errors.New("batch poll attempt ceiling exceeded")

// StatusSource is the one call the poller needs from the backend client.
type StatusSource interface {
	GetBatchStatus(ctx context.Context, batchId string) (*models.BatchStatus, error)
}

// TerminalOutcome describes how polling ended.
type TerminalOutcome struct {
	// final server status when the server reported a terminal state
	Status constants.BatchStatus
	// true only when the attempt ceiling was hit
	TimedOut bool
	Err      error
}

func (o TerminalOutcome) Succeeded() bool {
	return o.Status == batchStatus.Completed
}

type Poller struct {
	BatchId string

	source         StatusSource
	interval       time.Duration
	attemptCeiling int

	// invoked exactly once, after the transition into terminal
	onTerminal func(outcome TerminalOutcome)

	mux               sync.RWMutex
	state             constants.PollerState
	alive             bool
	attempts          int
	transportFailures int
	snapshot          *models.BatchStatus
	outcome           *TerminalOutcome

	scheduler *gocron.Scheduler
}

func NewPoller(batchId string, source StatusSource, cfg *models.Config, onTerminal func(outcome TerminalOutcome)) *Poller {
	interval := time.Duration(cfg.Monitor.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	attemptCeiling := cfg.Monitor.PollAttemptCeiling
	if attemptCeiling <= 0 {
		attemptCeiling = 600
	}

	return &Poller{
		BatchId:        batchId,
		source:         source,
		interval:       interval,
		attemptCeiling: attemptCeiling,
		onTerminal:     onTerminal,
		state:          pollerState.Idle,
	}
}

// Start moves idle -> polling and schedules the recurring poll.
func (p *Poller) Start() error {
	p.mux.Lock()
	if p.state != pollerState.Idle {
		p.mux.Unlock()
		return fmt.Errorf("poller for batch %s already started", p.BatchId)
	}
	p.state = pollerState.Polling
	p.alive = true

	// SingletonMode serializes ticks so a slow poll is never overlapped
	// by the next timer firing; WaitForSchedule holds the first poll
	// until one full interval after submission
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(p.interval).WaitForSchedule().SingletonMode().Do(p.Tick)
	p.scheduler = scheduler
	p.mux.Unlock()

	scheduler.StartAsync()
	return nil
}

// Cancel tears the poller down (client-side only; no backend cancel
// call is issued). Safe to call at any time, including after terminal.
func (p *Poller) Cancel() {
	p.mux.Lock()
	p.alive = false
	if p.state == pollerState.Polling {
		p.state = pollerState.Terminal
	}
	scheduler := p.scheduler
	p.scheduler = nil
	p.mux.Unlock()

	if scheduler != nil {
		scheduler.Stop()
	}
}

// Tick runs one poll cycle. Exported so the monitor (and tests) can
// drive a cycle directly without waiting on the scheduler.
func (p *Poller) Tick() {
	p.mux.Lock()
	if !p.alive || p.state != pollerState.Polling {
		p.mux.Unlock()
		return
	}

	p.attempts++
	if p.attempts > p.attemptCeiling {
		// the client gave up waiting; this says nothing about the
		// server's health
		outcome := TerminalOutcome{
			TimedOut: true,
			Err: fmt.Errorf("%w: gave up on batch %s after %d attempts",
				ErrPollCeilingExceeded, p.BatchId, p.attempts-1),
		}
		p.terminateLocked(outcome)
		return
	}
	p.mux.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	status, pollErr := p.source.GetBatchStatus(ctx, p.BatchId)
	cancel()

	p.mux.Lock()
	if !p.alive || p.state != pollerState.Polling {
		// cancelled (or already terminal) while this poll was in flight;
		// drop the stale response on the floor
		p.mux.Unlock()
		return
	}

	if pollErr != nil {
		// soft fail: count it and stay in polling
		p.transportFailures++
		fmt.Printf("[%s] - Batch %s poll attempt %d failed (%d transport failures so far) : %v\n",
			time.Now(), p.BatchId, p.attempts, p.transportFailures, pollErr)
		p.mux.Unlock()
		return
	}

	// full snapshot replacement, last write wins
	p.snapshot = status

	if !batchStatus.IsTerminal(status.Status) {
		p.mux.Unlock()
		return
	}

	if status.Status == batchStatus.Completed {
		p.terminateLocked(TerminalOutcome{Status: batchStatus.Completed})
	} else {
		p.terminateLocked(TerminalOutcome{
			Status: status.Status,
			Err:    fmt.Errorf("server reported batch %s as %s", p.BatchId, status.Status),
		})
	}
}

// terminateLocked finishes the polling -> terminal transition. Expects
// p.mux held; releases it. The terminal callback fires exactly once,
// outside the lock, and the scheduler is stopped on a separate
// goroutine because gocron's Stop must not be called from inside a job.
func (p *Poller) terminateLocked(outcome TerminalOutcome) {
	p.state = pollerState.Terminal
	p.alive = false
	p.outcome = &outcome
	scheduler := p.scheduler
	p.scheduler = nil
	p.mux.Unlock()

	if scheduler != nil {
		go scheduler.Stop()
	}

	if p.onTerminal != nil {
		p.onTerminal(outcome)
	}
}

func (p *Poller) State() constants.PollerState {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.state
}

// Snapshot returns the most recently applied status snapshot.
func (p *Poller) Snapshot() *models.BatchStatus {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.snapshot
}

func (p *Poller) Outcome() *TerminalOutcome {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.outcome
}

func (p *Poller) Attempts() int {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.attempts
}

func (p *Poller) TransportFailures() int {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.transportFailures
}
