package session

import "time"

// ReconnectPolicy tracks reconnection attempts and the backoff delay.
// The delay doubles after each failure, capped at max; Reset returns it
// to base after any successful connection.
type ReconnectPolicy struct {
	base        time.Duration
	max         time.Duration
	current     time.Duration
	attempt     int
	maxAttempts int
}

// NewReconnectPolicy creates a policy starting at base, doubling to at most
// max, giving up after maxAttempts consecutive failures. maxAttempts <= 0
// means retry forever.
func NewReconnectPolicy(base, max time.Duration, maxAttempts int) *ReconnectPolicy {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &ReconnectPolicy{
		base:        base,
		max:         max,
		current:     base,
		maxAttempts: maxAttempts,
	}
}

// Fail records a connection failure. It returns the delay to wait before
// the next attempt and whether another attempt is allowed. When attempts
// are exhausted the delay is zero and ok is false.
func (p *ReconnectPolicy) Fail() (delay time.Duration, ok bool) {
	p.attempt++
	if p.maxAttempts > 0 && p.attempt >= p.maxAttempts {
		return 0, false
	}

	delay = p.current
	p.current *= 2
	if p.current > p.max {
		p.current = p.max
	}
	return delay, true
}

// Reset returns the policy to its initial state. Called on any successful
// connection.
func (p *ReconnectPolicy) Reset() {
	p.attempt = 0
	p.current = p.base
}

// Attempt returns the number of consecutive failures recorded since the
// last Reset.
func (p *ReconnectPolicy) Attempt() int {
	return p.attempt
}
