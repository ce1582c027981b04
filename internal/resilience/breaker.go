// Package resilience wraps outbound calls in circuit breakers that report
// their state through slog and Prometheus.
package resilience

import (
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"movie-discovery-weather-recommender/internal/metrics"
)

// ErrUnavailable is returned when the breaker rejects a call without trying it.
var ErrUnavailable = errors.New("upstream temporarily unavailable")

// Settings configures a Breaker. Zero values take the defaults below.
type Settings struct {
	Name         string
	MinRequests  uint32        // requests in a window before the breaker may trip (10)
	FailureRatio float64       // trip at or above this failure ratio (0.6)
	Interval     time.Duration // closed-state counting window (1m)
	Timeout      time.Duration // open-state wait before half-open (30s)
	MaxRequests  uint32        // probes allowed while half-open (3)

	// IsSuccessful decides whether an error counts against the breaker.
	// Errors that describe the caller's input, such as a 404, should not.
	IsSuccessful func(err error) bool
}

// Breaker guards calls returning T.
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New builds a Breaker from s.
func New[T any](s Settings) *Breaker[T] {
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				slog.Warn("circuit breaker opening", "name", s.Name, "failures", counts.TotalFailures, "failure_ratio", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}
	if s.IsSuccessful != nil {
		settings.IsSuccessful = s.IsSuccessful
	}

	return &Breaker[T]{name: s.Name, cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker. A rejected call returns an error
// wrapping ErrUnavailable.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		slog.Warn("circuit breaker rejected request", "name", b.name, "error", err)
		var zero T
		return zero, errors.Join(ErrUnavailable, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return res, err
}

// State reports the current breaker state as "closed", "half-open" or "open".
func (b *Breaker[T]) State() string {
	return b.cb.State().String()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
