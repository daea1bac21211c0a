package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a simple token bucket rate limiter
type TokenBucket struct {
	mu           sync.Mutex
	capacity     int
	tokens       int
	refillRate   int // tokens added per refill period
	refillPeriod time.Duration
	lastRefill   time.Time
}

// NewTokenBucket creates a bucket that starts full and refills refillRate
// tokens every refillPeriod, capped at capacity.
func NewTokenBucket(capacity, refillRate int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow consumes a token if one is available.
// Returns true if the request is allowed, false if rate limited.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Tokens returns the current number of available tokens
func (tb *TokenBucket) Tokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}

// idleSince reports whether the bucket is full and has not refilled since
// the cutoff, meaning no request consumed a token in that window.
func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	return tb.tokens == tb.capacity && tb.lastRefill.Before(cutoff)
}

// refill adds tokens based on elapsed time since last refill.
// Must be called with lock held.
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	periods := int(elapsed / tb.refillPeriod)
	if periods <= 0 {
		return
	}

	tb.tokens += periods * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = tb.lastRefill.Add(time.Duration(periods) * tb.refillPeriod)
}

// Collection manages one token bucket per client id.
type Collection struct {
	mu           sync.RWMutex
	buckets      map[string]*TokenBucket
	capacity     int
	refillRate   int
	refillPeriod time.Duration

	lastCleanup     time.Time
	cleanupInterval time.Duration
}

// NewCollection creates a new collection of per-client rate limiters
func NewCollection(capacity, refillRate int, refillPeriod time.Duration) *Collection {
	return &Collection{
		buckets:         make(map[string]*TokenBucket),
		capacity:        capacity,
		refillRate:      refillRate,
		refillPeriod:    refillPeriod,
		lastCleanup:     time.Now(),
		cleanupInterval: 10 * time.Minute,
	}
}

// Allow checks if a request from the given client is allowed
func (c *Collection) Allow(clientID string) bool {
	return c.getBucket(clientID).Allow()
}

// Tokens returns available tokens for the given client
func (c *Collection) Tokens(clientID string) int {
	return c.getBucket(clientID).Tokens()
}

// getBucket gets or creates a token bucket for the client
func (c *Collection) getBucket(clientID string) *TokenBucket {
	c.mu.RLock()
	bucket, exists := c.buckets[clientID]
	c.mu.RUnlock()

	if exists {
		return bucket
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check, another goroutine might have created it
	if bucket, exists := c.buckets[clientID]; exists {
		return bucket
	}

	bucket = NewTokenBucket(c.capacity, c.refillRate, c.refillPeriod)
	c.buckets[clientID] = bucket

	c.maybeCleanup()

	return bucket
}

// maybeCleanup removes idle full buckets to bound memory.
// Must be called with write lock held.
func (c *Collection) maybeCleanup() {
	now := time.Now()
	if now.Sub(c.lastCleanup) < c.cleanupInterval {
		return
	}

	cutoff := now.Add(-30 * time.Minute)
	for clientID, bucket := range c.buckets {
		if bucket.idleSince(cutoff) {
			delete(c.buckets, clientID)
		}
	}

	c.lastCleanup = now
}
