package pagination

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the settle window between the last edit and a
// pagination pass.
const DefaultDebounce = 50 * time.Millisecond

// Task is the work a Scheduler runs once edits settle.
type Task func(ctx context.Context)

// Scheduler runs a task after a quiet period. Every Trigger cancels the
// pending run and starts the window again, so a burst of edits produces a
// single run against the final state.
type Scheduler struct {
	delay time.Duration
	task  Task

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool
	active  int
	idle    *sync.Cond
	running sync.WaitGroup
}

// NewScheduler creates a Scheduler for task with the given debounce window.
// A non-positive delay uses DefaultDebounce.
func NewScheduler(delay time.Duration, task Task) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		delay:  delay,
		task:   task,
		ctx:    ctx,
		cancel: cancel,
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Trigger schedules a run after the debounce window, replacing any run
// already pending.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.gen++
	gen := s.gen
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

// Flush waits for a run already in progress, then runs the pending task
// immediately on the calling goroutine. When it returns every edit
// triggered before the call has been handled.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	for s.active > 0 && !s.stopped {
		s.idle.Wait()
	}
	if s.stopped || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.startLocked()
	s.mu.Unlock()

	defer s.finish()
	s.task(s.ctx)
}

// Pending reports whether a run is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Stop cancels any pending run, cancels the context of a run in progress
// and waits for it to return. Later Triggers are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
	s.idle.Broadcast()
	s.mu.Unlock()

	s.cancel()
	s.running.Wait()
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || !s.pending || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.startLocked()
	s.mu.Unlock()

	defer s.finish()
	s.task(s.ctx)
}

func (s *Scheduler) startLocked() {
	s.active++
	s.running.Add(1)
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.active--
	if s.active == 0 {
		s.idle.Broadcast()
	}
	s.mu.Unlock()
	s.running.Done()
}
