package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/Perennis/pkg/logger"
)

// Action is the body of a recurring job. Errors are the caller's business:
// wrap the body in its own error boundary before registering it.
type Action func(ctx context.Context)

type job struct {
	name      string
	period    time.Duration
	next      time.Time
	action    Action
	cancelled bool
}

// Scheduler holds a set of fixed-period jobs and runs the due ones from Tick.
// Tick is meant to be driven by a single polling goroutine; actions run on it.
type Scheduler struct {
	mu   sync.Mutex
	now  func() time.Time
	jobs []*job
}

// New creates a Scheduler reading the time from now. A nil now uses time.Now.
func New(now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{now: now}
}

// Register adds a job whose first run is one full period from now.
func (s *Scheduler) Register(name string, period time.Duration, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, &job{
		name:   name,
		period: period,
		next:   s.now().Add(period),
		action: action,
	})
	logger.Log.Debug("Scheduler: Job registered", "job", name, "period", period)
}

// CancelAll drops every job. A job already running is not interrupted, but no
// cancelled job fires again, even later within the same Tick.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		j.cancelled = true
	}
	s.jobs = nil
}

// Tick runs every job whose fire time is at or before now, oldest first. Each
// fired job is rescheduled one period after its scheduled fire time, not after
// now, so slow actions do not push later runs back.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*job
	for _, j := range s.jobs {
		if !j.next.After(now) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(a, b int) bool { return due[a].next.Before(due[b].next) })

	for _, j := range due {
		s.mu.Lock()
		if j.cancelled {
			s.mu.Unlock()
			continue
		}
		fired := j.next
		j.next = fired.Add(j.period)
		s.mu.Unlock()

		logger.Log.Debug("Scheduler: Running job", "job", j.name, "scheduled", fired)
		j.action(ctx)
	}
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Next returns the next fire time of the named job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.name == name {
			return j.next, true
		}
	}
	return time.Time{}, false
}

// Personal.AI order the ending
