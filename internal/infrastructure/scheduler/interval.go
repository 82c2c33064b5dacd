package scheduler

import (
	"context"
	"sync"
	"time"

	"TechWatch/internal/ports"
)

// IntervalScheduler triggers the job at a fixed interval. Time flows through
// the injected clock and timer factory, so tests simulate it instead of
// sleeping; NextDue exposes the upcoming trigger for the same reason.
type IntervalScheduler struct {
	interval   time.Duration
	now        func() time.Time
	newTimer   func(d time.Duration) *time.Timer
	runAtStart bool

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler firing every interval; the job also
// runs once immediately on Start.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{
		interval:   interval,
		now:        time.Now,
		newTimer:   time.NewTimer,
		runAtStart: true,
	}
}

// NextDue returns when the next trigger after now fires.
func (s *IntervalScheduler) NextDue(now time.Time) time.Time {
	return now.Add(s.interval)
}

// Start launches the trigger loop. Start on a running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		if s.runAtStart {
			job(s.now())
		}
		for {
			timer := s.newTimer(s.interval)
			select {
			case <-timer.C:
				job(s.now())
			case <-ctx.Done():
				timer.Stop()
				return
			case <-stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the trigger loop; pending runs are not interrupted.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
