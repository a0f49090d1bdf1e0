// Package scheduler runs named periodic tasks. Challenge runs use it as their
// one-second countdown source; each run owns exactly one named task.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler manages named periodic tasks.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped bool
}

type task struct {
	interval time.Duration
	stopCh   chan struct{}
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]*task),
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// Every runs fn on a fixed interval until Cancel(name) or Stop. A task with
// the same name is replaced. Returns false once the scheduler is stopped.
func (s *Scheduler) Every(name string, interval time.Duration, fn TaskFn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if old, ok := s.tasks[name]; ok {
		close(old.stopCh)
	}
	t := &task{interval: interval, stopCh: make(chan struct{})}
	s.tasks[name] = t
	go s.loop(name, t, fn)
	s.logger.Debug("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
	return true
}

func (s *Scheduler) loop(name string, t *task, fn TaskFn) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.run(name, fn)
		case <-t.stopCh:
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) run(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	fn()
}

// Cancel stops and forgets the named task. It is safe to call from inside the
// task itself and for names that do not exist.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		close(t.stopCh)
		delete(s.tasks, name)
	}
}

// Has reports whether a task with name is registered.
func (s *Scheduler) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// Names returns the registered task names, sorted.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stop halts every task. Further Every calls are refused.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.tasks = make(map[string]*task)
}
