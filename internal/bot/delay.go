package bot

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// DelayPolicy decides how long to pause between device operations, keeping
// the tap cadence from looking machine-perfect.
type DelayPolicy interface {
	// Next returns the pause before operation number n (1-based).
	Next(n int) time.Duration
}

// FixedDelay pauses the same amount every time.
type FixedDelay struct {
	D time.Duration
}

func (f FixedDelay) Next(int) time.Duration { return f.D }

// ZeroDelay never pauses. Used in tests and dry runs.
type ZeroDelay struct{}

func (ZeroDelay) Next(int) time.Duration { return 0 }

// UniformRandomDelay draws from [Min, Max]. Every Every-th operation adds
// one extra draw on top, a longer breather the real cadence of a player
// would show.
type UniformRandomDelay struct {
	Min   time.Duration
	Max   time.Duration
	Every int
	rng   *rand.Rand
}

// NewUniformRandomDelay seeds the policy from the current time.
func NewUniformRandomDelay(min, max time.Duration, every int) *UniformRandomDelay {
	return &UniformRandomDelay{
		Min:   min,
		Max:   max,
		Every: every,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (u *UniformRandomDelay) Next(n int) time.Duration {
	d := u.draw()
	if u.Every > 0 && n > 0 && n%u.Every == 0 {
		d += u.draw()
	}
	return d
}

func (u *UniformRandomDelay) draw() time.Duration {
	if u.Max <= u.Min {
		return u.Min
	}
	return u.Min + time.Duration(u.rng.Int63n(int64(u.Max-u.Min)+1))
}

// BackoffDelay grows the pause exponentially with the attempt number,
// capped at Max. Used between retries of a failed step.
type BackoffDelay struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

func (b BackoffDelay) Next(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := b.Initial
	for i := 1; i < n; i++ {
		d = time.Duration(float64(d) * b.Factor)
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// NewDelayPolicy builds the policy named in the config.
func NewDelayPolicy(cfg Config) (DelayPolicy, error) {
	switch cfg.DelayPolicy {
	case "uniform":
		return NewUniformRandomDelay(cfg.MinDelay, cfg.MaxDelay, 10), nil
	case "fixed":
		return FixedDelay{D: cfg.MinDelay}, nil
	case "none":
		return ZeroDelay{}, nil
	default:
		return nil, fmt.Errorf("unknown delay policy %q", cfg.DelayPolicy)
	}
}

// sleep pauses for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
