package infra

import (
	"errors"
	"sync"
	"time"
)

// ErrRelayUnavailable is returned without dialing while the SMTP relay is
// considered down. The report job is retried later by the worker pool.
var ErrRelayUnavailable = errors.New("smtp relay unavailable, send skipped")

// relayBreaker keeps report mail from dialing a relay that keeps failing.
// After trip consecutive failures sends are refused for cooldown. Sends after
// the cooldown are trials: heal consecutive successes close the breaker, one
// failure starts a new cooldown.
type relayBreaker struct {
	mu       sync.Mutex
	trip     int
	heal     int
	cooldown time.Duration
	failures int
	trials   int
	openedAt time.Time // zero while closed
	now      func() time.Time
}

func newRelayBreaker(trip, heal int, cooldown time.Duration) *relayBreaker {
	return &relayBreaker{trip: trip, heal: heal, cooldown: cooldown, now: time.Now}
}

// state is "closed", "open" or "half-open", as shown on /health.
func (b *relayBreaker) state() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *relayBreaker) stateLocked() string {
	switch {
	case b.openedAt.IsZero():
		return "closed"
	case b.now().Sub(b.openedAt) < b.cooldown:
		return "open"
	default:
		return "half-open"
	}
}

func (b *relayBreaker) do(send func() error) error {
	if b.state() == "open" {
		return ErrRelayUnavailable
	}
	err := send()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.trials = 0
		b.failures++
		if !b.openedAt.IsZero() || b.failures >= b.trip {
			b.openedAt = b.now()
			b.failures = 0
		}
		return err
	}
	if b.openedAt.IsZero() {
		b.failures = 0
		return nil
	}
	b.trials++
	if b.trials >= b.heal {
		b.openedAt = time.Time{}
		b.trials = 0
	}
	return nil
}
