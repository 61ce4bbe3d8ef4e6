package memhost

import "sync"

type run struct {
	fn        func()
	cancelled bool
}

// Scheduler is a manual tick clock. Nothing happens until Tick or Run is
// called, which makes tick-budget behavior fully deterministic in tests.
type Scheduler struct {
	mu   sync.Mutex
	tick uint64
	runs []*run
}

// NewScheduler returns a scheduler positioned at tick 0.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// CurrentTick returns the number of ticks advanced so far.
func (s *Scheduler) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// EveryTick registers fn to run on every subsequent tick until cancelled.
// Cancelling is idempotent and takes effect immediately, even mid-tick.
func (s *Scheduler) EveryTick(fn func()) func() {
	r := &run{fn: fn}
	s.mu.Lock()
	s.runs = append(s.runs, r)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if r.cancelled {
			return
		}
		r.cancelled = true
		for i, cur := range s.runs {
			if cur == r {
				s.runs = append(s.runs[:i], s.runs[i+1:]...)
				break
			}
		}
	}
}

// Tick advances the clock by one and runs every registered callback in
// registration order. Callbacks registered during the tick first run on the
// next one.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.tick++
	snapshot := make([]*run, len(s.runs))
	copy(snapshot, s.runs)
	s.mu.Unlock()

	for _, r := range snapshot {
		s.mu.Lock()
		skip := r.cancelled
		s.mu.Unlock()
		if skip {
			continue
		}
		r.fn()
	}
}

// Run advances n ticks.
func (s *Scheduler) Run(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// Active reports how many callbacks are still registered.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}
