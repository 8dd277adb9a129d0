package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// TaskHandler executes a scheduled task.
type TaskHandler func(ctx context.Context, schedule *Schedule) error

// Config contains scheduler configuration.
type Config struct {
	// CheckInterval is how often due schedules are looked for.
	CheckInterval time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{CheckInterval: time.Second}
}

// Scheduler runs registered schedules on their own goroutine.
type Scheduler struct {
	logger   *slog.Logger
	handlers map[TaskType]TaskHandler
	entries  map[string]*Schedule
	now      func() time.Time

	checkInterval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a scheduler.
func New(logger *slog.Logger, config Config) *Scheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Scheduler{
		logger:        logger,
		handlers:      make(map[TaskType]TaskHandler),
		entries:       make(map[string]*Schedule),
		now:           config.Now,
		checkInterval: config.CheckInterval,
	}
}

// RegisterHandler registers a handler for a task type.
func (s *Scheduler) RegisterHandler(taskType TaskType, handler TaskHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[taskType] = handler
	s.logger.Debug("Registered scheduler handler", "taskType", taskType)
}

// Add registers a schedule. IDs are unique.
func (s *Scheduler) Add(id string, taskType TaskType, expression string) (*Schedule, error) {
	sched, err := NewSchedule(id, taskType, expression, s.now())
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		return nil, fmt.Errorf("schedule already exists: %s", id)
	}
	s.entries[id] = sched
	return sched.clone(), nil
}

// Remove drops a schedule.
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// SetEnabled toggles a schedule. Re-enabling restarts its interval from now.
func (s *Scheduler) SetEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("schedule not found: %s", id)
	}
	if enabled && !sched.Enabled {
		sched.NextRun = sched.expr.NextRun(s.now())
	}
	sched.Enabled = enabled
	return nil
}

// Get returns a copy of the schedule.
func (s *Scheduler) Get(id string) (*Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return sched.clone(), true
}

// List returns copies of all schedules ordered by next run.
func (s *Scheduler) List() []*Schedule {
	s.mu.Lock()
	out := make([]*Schedule, 0, len(s.entries))
	for _, sched := range s.entries {
		out = append(out, sched.clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextRun.Equal(out[j].NextRun) {
			return out[i].NextRun.Before(out[j].NextRun)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info("Starting scheduler", "checkInterval", s.checkInterval.String(), "schedules", len(s.entries))
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop cancels the loop and any task in flight, then waits.
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("scheduler shutdown timed out after %v", timeout)
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick runs every due schedule once and returns how many ran.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	var due []*Schedule
	for _, sched := range s.entries {
		if sched.IsDue(now) {
			due = append(due, sched)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	ran := 0
	for _, sched := range due {
		if ctx.Err() != nil {
			break
		}
		if s.execute(ctx, sched) {
			ran++
		}
	}
	return ran
}

// RunNow executes a schedule immediately, whether due or not.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	sched, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("schedule not found: %s", id)
	}
	s.execute(ctx, sched)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sched.LastStatus == "failed" {
		return fmt.Errorf("schedule %s: %s", id, sched.LastError)
	}
	return nil
}

func (s *Scheduler) execute(ctx context.Context, sched *Schedule) bool {
	s.mu.Lock()
	handler, ok := s.handlers[sched.TaskType]
	snapshot := sched.clone()
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("No handler for task type", "scheduleId", snapshot.ID, "taskType", snapshot.TaskType)
		s.mu.Lock()
		sched.NextRun = sched.expr.NextRun(s.now())
		s.mu.Unlock()
		return false
	}

	s.logger.Debug("Executing scheduled task", "scheduleId", snapshot.ID, "taskType", snapshot.TaskType)
	start := time.Now()
	err := handler(ctx, snapshot)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("Scheduled task failed", "scheduleId", snapshot.ID, "error", err, "duration", duration)
	} else {
		s.logger.Debug("Scheduled task completed", "scheduleId", snapshot.ID, "duration", duration)
	}

	s.mu.Lock()
	sched.MarkRun(s.now(), duration, err)
	s.mu.Unlock()
	return true
}
