package runner

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gradientlab/descent/internal/optimization"
)

// Status is the lifecycle state of a managed run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// RunStatus is the caller-facing view of one run.
type RunStatus struct {
	ID        string               `json:"id"`
	Status    Status               `json:"status"`
	StartTime time.Time            `json:"startTime"`
	EndTime   *time.Time           `json:"endTime,omitempty"`
	Result    *optimization.Result `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// managedRun pairs a run handle with its identity and the outcome once the
// single successful poll of the channel has happened.
type managedRun struct {
	id        string
	startTime time.Time
	endTime   *time.Time
	run       *Run
	outcome   *Outcome
}

// Manager tracks runs by ID so an external caller can start, poll, and stop
// them independently. Each run still follows the one-token/one-channel
// protocol of Start; the manager's lock only guards the map and the cached
// outcomes, never the workers themselves.
type Manager struct {
	mu     sync.RWMutex
	runs   map[string]*managedRun
	logger *zap.Logger
}

// NewManager creates a Manager that logs run lifecycle events to logger.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		runs:   make(map[string]*managedRun),
		logger: logger,
	}
}

// Launch validates params and starts a new run, returning its ID.
// Construction-time errors are returned synchronously and nothing is
// registered.
func (m *Manager) Launch(params optimization.Params) (string, error) {
	run, err := Start(params)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()

	m.mu.Lock()
	m.runs[id] = &managedRun{
		id:        id,
		startTime: time.Now(),
		run:       run,
	}
	m.mu.Unlock()

	runsStarted.Inc()
	runsActive.Inc()
	m.logger.Info("run started",
		zap.String("run_id", id),
		zap.String("formula", params.Formula),
		zap.Int("num_vars", params.NumVars),
		zap.Int("max_iterations", params.MaxIterations),
	)
	return id, nil
}

// Poll returns the current view of the run, absorbing the run's one-shot
// outcome into the manager's record the first time it is available.
func (m *Manager) Poll(id string) (*RunStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.runs[id]
	if !ok {
		return nil, optimization.NewErrorf(optimization.KindUnknown, "run %s not found", id)
	}

	if mr.outcome == nil {
		if out, done := mr.run.Poll(); done {
			mr.outcome = out
			now := time.Now()
			mr.endTime = &now
			runsActive.Dec()
			runsFinished.WithLabelValues(string(mr.status())).Inc()
			m.logger.Info("run finished",
				zap.String("run_id", id),
				zap.String("status", string(mr.status())),
			)
		}
	}

	return mr.view(), nil
}

// RequestStop sets the run's cancellation token. Safe to call repeatedly
// and after termination.
func (m *Manager) RequestStop(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.runs[id]
	if !ok {
		return optimization.NewErrorf(optimization.KindUnknown, "run %s not found", id)
	}

	mr.run.RequestStop()
	m.logger.Info("stop requested", zap.String("run_id", id))
	return nil
}

// StopAll requests cancellation of every tracked run, for shutdown.
func (m *Manager) StopAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mr := range m.runs {
		mr.run.RequestStop()
	}
}

func (mr *managedRun) status() Status {
	switch {
	case mr.outcome == nil:
		return StatusRunning
	case mr.outcome.Err != nil:
		return StatusFailed
	case mr.outcome.Result.TerminatedEarly:
		return StatusCancelled
	default:
		return StatusCompleted
	}
}

func (mr *managedRun) view() *RunStatus {
	rs := &RunStatus{
		ID:        mr.id,
		Status:    mr.status(),
		StartTime: mr.startTime,
		EndTime:   mr.endTime,
	}
	if mr.outcome != nil {
		rs.Result = mr.outcome.Result
		if mr.outcome.Err != nil {
			rs.Error = mr.outcome.Err.Error()
		}
	}
	return rs
}
