package analysis

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// failureBackoff tracks consecutive backend failures and opens an exponential
// window (1s, 2s, 4s ... max) during which new requests fail fast.
type failureBackoff struct {
	mu               sync.RWMutex
	lastFailTime     time.Time
	consecutiveFails int
	maxRetryBackoff  time.Duration
	now              func() time.Time
}

func newFailureBackoff(maxBackoff time.Duration) *failureBackoff {
	return &failureBackoff{
		maxRetryBackoff: maxBackoff,
		now:             time.Now,
	}
}

// shouldRetry reports whether the backoff window since the last failure has elapsed
func (b *failureBackoff) shouldRetry() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.maxRetryBackoff <= 0 || b.consecutiveFails == 0 {
		return true
	}

	backoffDuration := time.Duration(1<<uint(min(b.consecutiveFails-1, 30))) * time.Second
	if backoffDuration > b.maxRetryBackoff {
		backoffDuration = b.maxRetryBackoff
	}

	return b.now().Sub(b.lastFailTime) >= backoffDuration
}

func (b *failureBackoff) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFails++
	b.lastFailTime = b.now()

	if b.consecutiveFails <= 5 {
		log.Warn().
			Int("consecutive_fails", b.consecutiveFails).
			Msg("Analysis backend failure recorded")
	}
}

func (b *failureBackoff) recordSuccess() {
	b.mu.Lock()
	b.consecutiveFails = 0
	b.mu.Unlock()
}
