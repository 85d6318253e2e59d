package record

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sweepTimeout bounds one timer-triggered sweep.
const sweepTimeout = 10 * time.Second

// TimerScheduler runs a sweep in-process after a fixed delay. Pending sweeps
// are lost if the process exits before they fire.
type TimerScheduler struct {
	delay time.Duration
	sweep func(ctx context.Context, notificationID string) error

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func NewTimerScheduler(delay time.Duration, sweep func(ctx context.Context, notificationID string) error) *TimerScheduler {
	return &TimerScheduler{delay: delay, sweep: sweep, timers: make(map[string]*time.Timer)}
}

func (s *TimerScheduler) Schedule(_ context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	if t, ok := s.timers[notificationID]; ok {
		t.Stop()
	}
	s.timers[notificationID] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, notificationID)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if err := s.sweep(ctx, notificationID); err != nil {
			slog.Error("expiry sweep failed", "notification_id", notificationID, "err", err)
		}
	})
	return nil
}

// Pending returns how many sweeps have not fired yet.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
