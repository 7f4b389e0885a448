package measures

import (
	"math"
	"sync"
)

// cacheKey identifies one memoized computation: an operation tag plus the
// single numeric argument some operations take (threshold, percentile).
// Argument-free operations use a zero argument.
type cacheKey struct {
	op  string
	arg float64
}

// memoCache is the per-comparison memoization layer. Each comparison
// instance owns exactly one cache; entries are filled at most once and
// never invalidated for the lifetime of the instance. The mutex is held
// across the fill so concurrent requests against the same instance cannot
// duplicate an expensive computation.
type memoCache struct {
	mu      sync.Mutex
	entries map[cacheKey]interface{}
}

func newMemoCache() *memoCache {
	return &memoCache{entries: make(map[cacheKey]interface{})}
}

// get returns the cached value for an argument-free operation, computing
// and storing it on first access.
func (c *memoCache) get(op string, fill func() interface{}) interface{} {
	return c.getArg(op, 0, fill)
}

// getArg is the argument-carrying variant of get.
func (c *memoCache) getArg(op string, arg float64, fill func() interface{}) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{op: op, arg: arg}
	if v, ok := c.entries[key]; ok {
		return v
	}
	v := fill()
	c.entries[key] = v
	return v
}

// ratio divides two counts, yielding NaN instead of a division failure
// when the denominator is exactly zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
