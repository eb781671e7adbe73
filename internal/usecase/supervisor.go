package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsRadar/internal/config"
	"NewsRadar/internal/domain"
)

const recentErrorLimit = 10

// TaskError is one entry of a task's bounded error history.
type TaskError struct {
	At      time.Time
	Message string
}

// SourceStatus is the read-only snapshot of one supervised task.
type SourceStatus struct {
	Name         string
	Enabled      bool
	State        domain.TaskState
	Running      bool
	LastSuccess  time.Time
	RecentErrors []TaskError
}

type task struct {
	src         config.SourceConfig
	state       domain.TaskState
	lastSuccess time.Time
	errors      []TaskError
}

// Supervisor owns one long-lived task per enabled source plus a periodic
// liveness sweep. A task that dies with an error is rescheduled; a task
// that returns cleanly stays stopped. Restarts never touch the seen
// ledger, so they cannot cause redelivery.
type Supervisor struct {
	poller   *Poller
	interval time.Duration
	sweep    time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	tasks map[string]*task

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewSupervisor wires the poller and the cycle cadence. sweep is the
// liveness-check period; zero defaults to one minute.
func NewSupervisor(poller *Poller, interval, sweep time.Duration, logger *slog.Logger) *Supervisor {
	if sweep <= 0 {
		sweep = time.Minute
	}
	return &Supervisor{
		poller:   poller,
		interval: interval,
		sweep:    sweep,
		logger:   logger,
		tasks:    make(map[string]*task),
	}
}

// Start schedules one task per enabled source and the liveness sweeper.
// It returns immediately; use Shutdown to stop and wait.
func (s *Supervisor) Start(ctx context.Context, sources []config.SourceConfig) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.mu.Lock()
	for _, src := range sources {
		if _, dup := s.tasks[src.Name]; dup {
			s.mu.Unlock()
			return fmt.Errorf("duplicate source name %s", src.Name)
		}
		t := &task{src: src, state: domain.TaskStopped}
		s.tasks[src.Name] = t
		if src.IsEnabled() {
			t.state = domain.TaskScheduled
		}
	}
	s.mu.Unlock()

	for _, src := range sources {
		if src.IsEnabled() {
			s.spawn(ctx, src.Name)
		}
	}

	s.wg.Add(1)
	go s.livenessLoop(ctx)

	return nil
}

// Shutdown signals cooperative cancellation and waits for every task and
// the sweeper to acknowledge it.
func (s *Supervisor) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Status returns a point-in-time snapshot of all tasks.
func (s *Supervisor) Status() []SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SourceStatus, 0, len(s.tasks))
	for _, t := range s.tasks {
		errs := make([]TaskError, len(t.errors))
		copy(errs, t.errors)
		out = append(out, SourceStatus{
			Name:         t.src.Name,
			Enabled:      t.src.IsEnabled(),
			State:        t.state,
			Running:      t.state == domain.TaskRunning,
			LastSuccess:  t.lastSuccess,
			RecentErrors: errs,
		})
	}
	return out
}

func (s *Supervisor) spawn(ctx context.Context, name string) {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	t.state = domain.TaskRunning
	src := t.src
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTask(ctx, src)
	}()
}

// runTask is the unbounded per-source loop: cycle, sleep, repeat. A
// panic escaping a cycle marks the task crashed for the sweeper to pick
// up; cancellation marks it stopped.
func (s *Supervisor) runTask(ctx context.Context, src config.SourceConfig) {
	defer func() {
		if r := recover(); r != nil {
			s.recordCrash(src.Name, fmt.Sprintf("panic: %v", r))
		}
	}()

	logger := s.logger.With("source", src.Name)

	for {
		if ctx.Err() != nil {
			s.setState(src.Name, domain.TaskStopped)
			return
		}

		posted, err := s.poller.Cycle(ctx, src)
		switch {
		case err != nil && ctx.Err() != nil:
			s.setState(src.Name, domain.TaskStopped)
			return
		case err != nil:
			logger.Warn("cycle failed", "error", err)
			s.recordError(src.Name, err)
		default:
			if posted > 0 {
				logger.Info("cycle done", "posted", posted)
			}
			s.recordSuccess(src.Name)
		}

		if !s.sleep(ctx, s.interval) {
			s.setState(src.Name, domain.TaskStopped)
			return
		}
	}
}

// livenessLoop restarts crashed tasks on a fixed period. Tasks stopped
// by cancellation or clean completion are left alone.
func (s *Supervisor) livenessLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range s.crashedTasks() {
				s.logger.Info("restarting crashed task", "source", name)
				s.setState(name, domain.TaskRestarting)
				s.spawn(ctx, name)
			}
		}
	}
}

func (s *Supervisor) crashedTasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var crashed []string
	for name, t := range s.tasks {
		if t.state == domain.TaskCrashed {
			crashed = append(crashed, name)
		}
	}
	return crashed
}

func (s *Supervisor) setState(name string, state domain.TaskState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.state = state
	}
}

func (s *Supervisor) recordSuccess(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.lastSuccess = time.Now().UTC()
	}
}

func (s *Supervisor) recordError(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.errors = appendBounded(t.errors, TaskError{At: time.Now().UTC(), Message: err.Error()})
	}
}

func (s *Supervisor) recordCrash(name, message string) {
	s.logger.Error("task crashed", "source", name, "error", message)
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.state = domain.TaskCrashed
		t.errors = appendBounded(t.errors, TaskError{At: time.Now().UTC(), Message: message})
	}
}

func appendBounded(errs []TaskError, e TaskError) []TaskError {
	errs = append(errs, e)
	if len(errs) > recentErrorLimit {
		errs = errs[len(errs)-recentErrorLimit:]
	}
	return errs
}

// sleep waits for d or cancellation; false means the context ended.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
