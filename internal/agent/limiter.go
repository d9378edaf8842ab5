package agent

import (
	"sync"
	"time"
)

// SpendLimiter is a per-client token bucket over provider-backed generations.
// A client without tokens is served the fallback instead of an error.
type SpendLimiter struct {
	mu           sync.Mutex
	tokens       map[string]int
	lastRefill   map[string]time.Time
	maxTokens    int
	refillRate   int           // tokens per refill
	refillPeriod time.Duration // how often to refill
	lastSweep    time.Time
	now          func() time.Time
}

// sweepInterval is how often idle buckets are dropped.
const sweepInterval = time.Minute

// NewSpendLimiter allows maxTokens generations per client, topping up
// refillRate tokens every refillPeriod.
func NewSpendLimiter(maxTokens, refillRate int, refillPeriod time.Duration) *SpendLimiter {
	return &SpendLimiter{
		tokens:       make(map[string]int),
		lastRefill:   make(map[string]time.Time),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
		now:          time.Now,
	}
}

// Allow takes a token for key when one is available.
func (rl *SpendLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	if _, exists := rl.tokens[key]; !exists {
		rl.tokens[key] = rl.maxTokens
		rl.lastRefill[key] = now
	}

	if rl.refillPeriod > 0 {
		refills := int(now.Sub(rl.lastRefill[key]) / rl.refillPeriod)
		if refills > 0 {
			rl.tokens[key] = min(rl.tokens[key]+refills*rl.refillRate, rl.maxTokens)
			rl.lastRefill[key] = rl.lastRefill[key].Add(time.Duration(refills) * rl.refillPeriod)
		}
	}

	if rl.tokens[key] > 0 {
		rl.tokens[key]--
		return true
	}
	return false
}

// sweep drops buckets idle long enough to have refilled completely; a
// dropped key starts again from a full bucket, so nothing observable changes.
func (rl *SpendLimiter) sweep(now time.Time) {
	if rl.refillPeriod <= 0 || rl.refillRate <= 0 || now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now
	periods := (rl.maxTokens + rl.refillRate - 1) / rl.refillRate
	idle := time.Duration(periods) * rl.refillPeriod
	for key, last := range rl.lastRefill {
		if now.Sub(last) >= idle {
			delete(rl.tokens, key)
			delete(rl.lastRefill, key)
		}
	}
}

// Len returns the number of tracked clients.
func (rl *SpendLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.tokens)
}

// Remaining returns the remaining tokens for a key
func (rl *SpendLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if t, ok := rl.tokens[key]; ok {
		return t
	}
	return rl.maxTokens
}
