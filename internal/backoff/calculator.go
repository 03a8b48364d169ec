package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// Jitter bounds: a delay is scaled by a uniform factor in [MinJitter, MaxJitter].
const (
	MinJitter = 0.75
	MaxJitter = 1.0
)

// Calculator turns a retry number into a jittered delay. A single Calculator
// is shared by all calls of a transport; its random source is guarded by a
// mutex so it is safe for concurrent use.
type Calculator struct {
	strategy Strategy

	mu     sync.Mutex
	random func() float64
}

// NewCalculator creates a calculator seeded from the given value.
func NewCalculator(strategy Strategy, seed int64) *Calculator {
	rnd := rand.New(rand.NewSource(seed))
	return NewCalculatorWithRandom(strategy, rnd.Float64)
}

// NewCalculatorWithRandom creates a calculator drawing jitter from random,
// which must return values in [0, 1).
func NewCalculatorWithRandom(strategy Strategy, random func() float64) *Calculator {
	if strategy == nil {
		strategy = ExponentialStrategy{}
	}
	return &Calculator{
		strategy: strategy,
		random:   random,
	}
}

// GetExponentialCalculator returns a calculator with the exponential
// strategy seeded from the clock.
func GetExponentialCalculator() *Calculator {
	return NewCalculator(ExponentialStrategy{}, time.Now().UnixNano())
}

// Delay returns the delay before the given retry (1-based). The strategy's
// base delay is scaled by a factor in [0.75, 1.0] and then floored at minDelay.
func (c *Calculator) Delay(retry int, minDelay, maxDelay time.Duration) time.Duration {
	base := c.strategy.Base(retry, minDelay, maxDelay)

	delay := time.Duration(float64(base) * c.factor())
	if delay < minDelay {
		delay = minDelay
	}
	return delay
}

// GetStrategy returns the current strategy being used by this calculator.
func (c *Calculator) GetStrategy() Strategy {
	return c.strategy
}

func (c *Calculator) factor() float64 {
	c.mu.Lock()
	r := c.random()
	c.mu.Unlock()

	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return MinJitter + (MaxJitter-MinJitter)*r
}
