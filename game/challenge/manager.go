package challenge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/mathquest/metrics"
	"github.com/kasuganosora/mathquest/resource"
	"github.com/kasuganosora/mathquest/scheduler"
	"go.uber.org/zap"
)

var (
	ErrAlreadyCompleted = errors.New("challenge: already completed today")
	ErrManagerClosed    = errors.New("challenge: scheduler stopped")
)

// Finisher receives every finalized run. The orchestrator awards points here.
type Finisher func(ctx context.Context, profileID string, ch *resource.DailyChallenge, sum Summary)

// Manager keeps at most one live run per profile and drives its countdown
// from the shared scheduler.
type Manager struct {
	mu       sync.RWMutex
	runs     map[string]*Run // profileID → live run
	sched    *scheduler.Scheduler
	tick     time.Duration
	finisher Finisher
	logger   *zap.Logger
}

// NewManager creates a Manager. tick is the countdown resolution; one tick
// consumes one second of the run's budget.
func NewManager(sched *scheduler.Scheduler, tick time.Duration, logger *zap.Logger) *Manager {
	if tick <= 0 {
		tick = time.Second
	}
	return &Manager{
		runs:   make(map[string]*Run),
		sched:  sched,
		tick:   tick,
		logger: logger,
	}
}

// SetFinisher installs the callback that receives finalized runs.
func (m *Manager) SetFinisher(fn Finisher) {
	m.mu.Lock()
	m.finisher = fn
	m.mu.Unlock()
}

func taskName(profileID, runID string) string {
	return "run:" + profileID + ":" + runID
}

// Launch starts a run of ch for profileID. A live run of the same challenge
// is returned as is; a live run of another challenge is exited first.
func (m *Manager) Launch(profileID string, ch *resource.DailyChallenge, completedToday bool) (*Run, error) {
	if completedToday {
		return nil, ErrAlreadyCompleted
	}

	m.mu.Lock()
	old := m.runs[profileID]
	if old != nil && old.Challenge().ID == ch.ID && old.Phase() == Running {
		m.mu.Unlock()
		return old, nil
	}
	run := NewRun(uuid.NewString(), ch)
	name := taskName(profileID, run.ID())
	run.OnFinish(func(sum Summary) {
		m.sched.Cancel(name)
		m.unregister(profileID, run)
		metrics.RunFinished(sum.Completed)
		m.logger.Info("challenge run finished",
			zap.String("profile_id", profileID),
			zap.String("challenge_id", sum.ChallengeID),
			zap.Int("correct", sum.Correct),
			zap.Int("solved", sum.Solved),
			zap.Bool("completed", sum.Completed))
		m.mu.RLock()
		fn := m.finisher
		m.mu.RUnlock()
		if fn != nil {
			fn(context.Background(), profileID, ch, sum)
		}
	})
	// Published only once running, so a concurrent Launch either reuses it
	// or supersedes it with its finish hook in place.
	if err := run.Start(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.runs[profileID] = run
	m.mu.Unlock()
	metrics.RunStarted()

	if old != nil {
		m.logger.Info("challenge run superseded",
			zap.String("profile_id", profileID),
			zap.String("run_id", old.ID()))
		old.Exit()
	}

	if !m.sched.Every(name, m.tick, run.Tick) {
		run.Exit()
		return nil, ErrManagerClosed
	}
	if run.Phase() == Finished {
		// superseded before its countdown was registered
		m.sched.Cancel(name)
	}
	m.logger.Info("challenge run launched",
		zap.String("profile_id", profileID),
		zap.String("challenge_id", ch.ID),
		zap.String("run_id", run.ID()))
	return run, nil
}

func (m *Manager) unregister(profileID string, run *Run) {
	m.mu.Lock()
	if m.runs[profileID] == run {
		delete(m.runs, profileID)
	}
	m.mu.Unlock()
}

// Get returns the live run for profileID, or nil.
func (m *Manager) Get(profileID string) *Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runs[profileID]
}

// Count returns the number of live runs.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// Close exits every live run so each is finalized before shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	live := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		live = append(live, r)
	}
	m.mu.Unlock()
	for _, r := range live {
		r.Exit()
	}
}
