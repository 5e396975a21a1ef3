package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TimerScheduler implements ports.Scheduler on time.AfterFunc. Tasks run
// on their own goroutine with the scheduler's lifecycle context; Stop
// cancels pending timers and waits for in-flight tasks.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[uint64]*time.Timer
	nextID uint64
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger
}

// NewTimerScheduler creates a running scheduler.
func NewTimerScheduler(log zerolog.Logger) *TimerScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &TimerScheduler{
		timers: make(map[uint64]*time.Timer),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Schedule arms a timer for task. The returned cancel function stops the
// task if it has not fired yet; calling it after the task ran is a no-op.
func (s *TimerScheduler) Schedule(delay time.Duration, task func(ctx context.Context)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return func() {}
	}

	id := s.nextID
	s.nextID++
	s.wg.Add(1)

	timer := time.AfterFunc(delay, func() {
		if !s.take(id) {
			return
		}
		defer s.wg.Done()
		if s.ctx.Err() != nil {
			return
		}
		task(s.ctx)
	})
	s.timers[id] = timer

	return func() {
		if s.take(id) {
			timer.Stop()
			s.wg.Done()
		}
	}
}

// take removes the timer entry; the caller that wins owns the wg slot.
func (s *TimerScheduler) take(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[id]; !ok {
		return false
	}
	delete(s.timers, id)
	return true
}

// Stop cancels all pending timers and waits for tasks already running.
func (s *TimerScheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	pending := len(s.timers)
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
		s.wg.Done()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if pending > 0 {
		s.log.Info().Int("cancelled", pending).Msg("scheduler stopped with pending timers")
	}
}
