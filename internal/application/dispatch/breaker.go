package dispatch

import (
	"errors"
	"log/slog"
	"time"

	"github.com/callog-relay/internal/domain"
	"github.com/sony/gobreaker"
)

// NewBreaker trips after failures consecutive push network errors and probes
// again after cooldown. Token rejections do not count as failures.
func NewBreaker(name string, failures uint32, cooldown time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= failures },
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrTokenRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("push breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
