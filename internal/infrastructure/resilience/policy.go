package resilience

import "time"

// RetryPolicy shapes the exponential backoff applied to a failed attempt.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// BreakerPolicy shapes the per-operation circuit breaker.
type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Config struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy
}

func DefaultConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialBackoff:    200 * time.Millisecond,
			MaxBackoff:        2 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      8,
			FailureRatio:     0.5,
			OpenTimeout:      20 * time.Second,
			HalfOpenMaxCalls: 2,
		},
	}
}

// normalize replaces zero or nonsensical values with defaults so a partly
// filled Config still yields a usable executor.
func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c

	out.Retry.MaxAttempts = positiveOr(out.Retry.MaxAttempts, def.Retry.MaxAttempts)
	out.Retry.InitialBackoff = durationOr(out.Retry.InitialBackoff, def.Retry.InitialBackoff)
	out.Retry.MaxBackoff = durationOr(out.Retry.MaxBackoff, def.Retry.MaxBackoff)
	if out.Retry.MaxBackoff < out.Retry.InitialBackoff {
		out.Retry.MaxBackoff = out.Retry.InitialBackoff
	}
	if out.Retry.BackoffMultiplier < 1.0 {
		out.Retry.BackoffMultiplier = def.Retry.BackoffMultiplier
	}

	if out.Breaker.MinRequests == 0 {
		out.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if out.Breaker.FailureRatio <= 0 || out.Breaker.FailureRatio > 1 {
		out.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	out.Breaker.OpenTimeout = durationOr(out.Breaker.OpenTimeout, def.Breaker.OpenTimeout)
	if out.Breaker.HalfOpenMaxCalls == 0 {
		out.Breaker.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}

	return out
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func durationOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
