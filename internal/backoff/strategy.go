// Package backoff computes the wait that precedes each retry.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// maxExponent bounds the multiplier power to keep durations from overflowing.
const maxExponent = 30

// Strategy returns the wait before the given retry. retry is 1 for the
// first retry. Implementations never return less than Params.Base.
type Strategy interface {
	Delay(retry int, p Params) time.Duration
}

// Params carries the caller's delay configuration.
type Params struct {
	// Base is the minimum wait before any retry.
	Base time.Duration
	// Max caps the wait. Zero, or a value below Base, means no cap.
	Max time.Duration
	// Multiplier grows the wait between consecutive retries. Values below
	// one are treated as one.
	Multiplier float64
	// Jitter adds up to Jitter*wait of random extra delay, clamped to [0, 1].
	Jitter float64
	// Rand returns a value in [0, 1). Defaults to math/rand.Float64.
	Rand func() float64
}

// FixedStrategy waits Base before every retry, plus jitter.
type FixedStrategy struct{}

// Delay implements Strategy.
func (FixedStrategy) Delay(_ int, p Params) time.Duration {
	return p.finish(p.Base)
}

// ExponentialStrategy waits Base*Multiplier^(retry-1), capped at Max, plus
// jitter.
type ExponentialStrategy struct{}

// Delay implements Strategy.
func (ExponentialStrategy) Delay(retry int, p Params) time.Duration {
	exp := retry - 1
	if exp < 0 {
		exp = 0
	}
	if exp > maxExponent {
		exp = maxExponent
	}

	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	f := float64(p.Base) * pow(multiplier, exp)
	if f >= math.MaxInt64 {
		return p.finish(time.Duration(math.MaxInt64))
	}
	return p.finish(time.Duration(f))
}

// For returns the strategy matching the parameters: exponential when the
// multiplier grows the delay, fixed otherwise.
func For(p Params) Strategy {
	if p.Multiplier > 1 {
		return ExponentialStrategy{}
	}
	return FixedStrategy{}
}

// Delay is shorthand for For(p).Delay(retry, p).
func Delay(retry int, p Params) time.Duration {
	return For(p).Delay(retry, p)
}

func (p Params) finish(d time.Duration) time.Duration {
	if p.Base < 0 {
		p.Base = 0
	}
	capped := p.Max > 0 && p.Max >= p.Base
	if capped && d > p.Max {
		d = p.Max
	}

	jitter := clampJitter(p.Jitter)
	if jitter > 0 {
		rnd := p.Rand
		if rnd == nil {
			rnd = rand.Float64
		}
		if extra := time.Duration(float64(d) * jitter * rnd()); d+extra > d {
			d += extra
		}
		if capped && d > p.Max {
			d = p.Max
		}
	}

	if d < p.Base {
		d = p.Base
	}
	return d
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
