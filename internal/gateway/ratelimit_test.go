package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_BurstThenExhaustion(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(3, time.Second, clock.Now)

	for i := 0; i < 3; i++ {
		ok, _ := bucket.Allow()
		assert.True(t, ok, "call %d should be allowed", i+1)
	}

	ok, retryAfter := bucket.Allow()
	assert.False(t, ok)
	assert.Equal(t, time.Second, retryAfter)
}

func TestTokenBucket_RefillAfterInterval(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(3, time.Second, clock.Now)

	for i := 0; i < 3; i++ {
		ok, _ := bucket.Allow()
		assert.True(t, ok)
	}
	ok, _ := bucket.Allow()
	assert.False(t, ok)

	clock.Advance(time.Second)

	for i := 0; i < 3; i++ {
		ok, _ := bucket.Allow()
		assert.True(t, ok, "call %d after refill should be allowed", i+1)
	}
	ok, _ = bucket.Allow()
	assert.False(t, ok)
}

func TestTokenBucket_TokensNeverExceedCapacity(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(2, time.Second, clock.Now)

	clock.Advance(10 * time.Second)

	ok, _ := bucket.Allow()
	assert.True(t, ok)
	ok, _ = bucket.Allow()
	assert.True(t, ok)
	ok, _ = bucket.Allow()
	assert.False(t, ok)
}

func TestTokenBucket_FractionalRemainderPreserved(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(1, time.Second, clock.Now)

	ok, _ := bucket.Allow()
	assert.True(t, ok)

	// 1.5 intervals refills once and keeps the half interval of
	// credit; another 500ms completes the second interval.
	clock.Advance(1500 * time.Millisecond)
	ok, _ = bucket.Allow()
	assert.True(t, ok)
	ok, _ = bucket.Allow()
	assert.False(t, ok)

	clock.Advance(500 * time.Millisecond)
	ok, _ = bucket.Allow()
	assert.True(t, ok)
}
