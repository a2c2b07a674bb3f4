package streaming

import (
	"math/rand"
	"testing"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/testutil/testlog"
)

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
	want := map[int]time.Duration{
		1: 250 * time.Millisecond,
		2: 500 * time.Millisecond,
		3: time.Second,
		6: 5 * time.Second,
	}
	for attempt, d := range want {
		if got := retryDelay(cfg, attempt, nil); got != d {
			t.Fatalf("attempt%d got=%v want %v", attempt, got, d)
		}
	}

	cfg.Multiplier = 0.5
	if got := retryDelay(cfg, 3, nil); got != 250*time.Millisecond {
		t.Fatalf("sub-unit multiplier must not shrink the delay, got=%v", got)
	}
}

func TestRetryDelayZeroValueRetriesImmediately(t *testing.T) {
	testlog.Start(t)
	for attempt := 1; attempt <= 4; attempt++ {
		if got := retryDelay(BackoffConfig{}, attempt, nil); got != 0 {
			t.Fatalf("attempt%d got=%v want 0", attempt, got)
		}
	}
}

func TestRetryDelayJitterBand(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
	rng := rand.New(rand.NewSource(7))
	for attempt := 1; attempt <= 5; attempt++ {
		base := retryDelay(BackoffConfig{InitialDelay: cfg.InitialDelay, Multiplier: 2, MaxDelay: cfg.MaxDelay}, attempt, nil)
		got := retryDelay(cfg, attempt, rng)
		if got < base/2 || got >= base*3/2 {
			t.Fatalf("attempt%d jitter %v outside [%v, %v)", attempt, got, base/2, base*3/2)
		}
	}
}

func TestFailureHoldOffTracksAttempt(t *testing.T) {
	testlog.Start(t)
	now := time.Unix(1700000000, 0)
	var f failure
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 3}

	if got := f.holdOff(cfg, 1, now, nil); !got.Equal(now.Add(time.Second)) {
		t.Fatalf("first hold-off = %v", got)
	}
	if got := f.holdOff(cfg, 2, now, nil); !got.Equal(now.Add(3 * time.Second)) {
		t.Fatalf("second hold-off = %v", got)
	}
	if f.attempts != 2 || !f.notBefore.Equal(now.Add(3*time.Second)) {
		t.Fatalf("failure record = %+v", f)
	}
}

func TestJitterSourceSeedsOnlyWhenNeeded(t *testing.T) {
	testlog.Start(t)
	if jitterSource(BackoffConfig{}, nil) != nil {
		t.Fatalf("no jitter must not allocate a source")
	}
	given := rand.New(rand.NewSource(1))
	if jitterSource(BackoffConfig{Jitter: true}, given) != given {
		t.Fatalf("explicit source must be kept")
	}
	if jitterSource(BackoffConfig{Jitter: true}, nil) == nil {
		t.Fatalf("jitter without a source must get one")
	}
}
