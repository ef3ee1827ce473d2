package biller

import (
	"time"

	"github.com/sony/gobreaker"
)

// newBreaker builds the circuit breaker wrapped around each external service
// client. Breaker mechanics are the library's concern; we only set the trip
// policy.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
