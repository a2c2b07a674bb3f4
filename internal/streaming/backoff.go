package streaming

import (
	"math"
	"math/rand"
	"time"
)

// retryDelay is the hold-off after the attempt-th consecutive failure of a
// cell. The first failure waits InitialDelay and each later one multiplies
// it, up to MaxDelay. With jitter the result is scaled into [0.5, 1.5).
func retryDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 || attempt < 1 {
		return 0
	}
	growth := max(cfg.Multiplier, 1)
	delay := float64(cfg.InitialDelay) * math.Pow(growth, float64(attempt-1))
	if cfg.MaxDelay > 0 {
		delay = math.Min(delay, float64(cfg.MaxDelay))
	}
	if cfg.Jitter && rng != nil {
		delay *= 0.5 + rng.Float64()
	}
	return time.Duration(delay)
}

// holdOff records a failed attempt and returns when the cell may be
// requested again.
func (f *failure) holdOff(cfg BackoffConfig, attempt int, now time.Time, rng *rand.Rand) time.Time {
	f.attempts = attempt
	f.notBefore = now.Add(retryDelay(cfg, attempt, rng))
	return f.notBefore
}

// jitterSource keeps rng when given; otherwise jittered backoff gets a
// time-seeded source so managers spread their retries apart.
func jitterSource(cfg BackoffConfig, rng *rand.Rand) *rand.Rand {
	if rng != nil || !cfg.Jitter {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
