package dispatch

import "time"

// Backoff is the retry policy for notification delivery: the delay
// before attempt n+1 is Base doubled once per recorded failure.
type Backoff struct {
	Base       time.Duration
	MaxRetries int
}

// Delay returns how long to wait after the given (already incremented)
// retry count: Base * 2^retryCount.
func (b Backoff) Delay(retryCount int) time.Duration {
	d := b.Base
	for i := 0; i < retryCount; i++ {
		d *= 2
	}
	return d
}

// Exhausted reports whether a job with the given retry count is out of
// attempts and must be failed terminally.
func (b Backoff) Exhausted(retryCount int) bool {
	return retryCount >= b.MaxRetries
}
