package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowUpToLimit(t *testing.T) {
	now := time.Now()
	limiter := New(WithLimit(100), WithNow(func() time.Time { return now }))

	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow("client-a"), "request %d should be allowed", i+1)
	}

	assert.False(t, limiter.Allow("client-a"), "the 101st request in the window must be rejected")
}

func TestWindowSlides(t *testing.T) {
	now := time.Now()
	limiter := New(WithLimit(2), WithWindow(60*time.Second), WithNow(func() time.Time { return now }))

	assert.True(t, limiter.Allow("client-a"))
	assert.True(t, limiter.Allow("client-a"))
	assert.False(t, limiter.Allow("client-a"))

	// once the window fully elapses the client is admitted again
	now = now.Add(61 * time.Second)
	assert.True(t, limiter.Allow("client-a"))
}

func TestClientsAreIndependent(t *testing.T) {
	now := time.Now()
	limiter := New(WithLimit(1), WithNow(func() time.Time { return now }))

	assert.True(t, limiter.Allow("client-a"))
	assert.False(t, limiter.Allow("client-a"))
	assert.True(t, limiter.Allow("client-b"))
}

func TestEvictStale(t *testing.T) {
	now := time.Now()
	limiter := New(WithLimit(5), WithWindow(60*time.Second), WithNow(func() time.Time { return now }))

	limiter.Allow("client-a")
	limiter.Allow("client-b")

	now = now.Add(2 * time.Minute)
	limiter.Allow("client-b")

	evicted := limiter.evictStale()
	assert.Equal(t, 1, evicted, "only the fully idle client is evicted")

	limiter.mtx.Lock()
	defer limiter.mtx.Unlock()
	_, aExists := limiter.clients["client-a"]
	_, bExists := limiter.clients["client-b"]
	assert.False(t, aExists)
	assert.True(t, bExists)
}
