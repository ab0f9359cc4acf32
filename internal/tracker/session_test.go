package tracker

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilestonesToFireSequence(t *testing.T) {
	registry := NewRegistry(DefaultSessionTTL)
	session := registry.Acquire("", false)

	var fired []int
	for _, depth := range []int{10, 30, 60, 30, 95} {
		fired = append(fired, session.MilestonesToFire(depth)...)
	}

	assert.Equal(t, []int{25, 50, 90}, fired)
	assert.Equal(t, 95, session.MaxScrollDepth())
}

func TestMilestonesToFireOncePerBand(t *testing.T) {
	registry := NewRegistry(DefaultSessionTTL)
	session := registry.Acquire("", false)

	assert.Equal(t, []int{50}, session.MilestonesToFire(55))
	assert.Empty(t, session.MilestonesToFire(55))
	assert.Empty(t, session.MilestonesToFire(60))

	// A deeper scroll fires only the band it lands in.
	assert.Equal(t, []int{90}, session.MilestonesToFire(92))
	assert.Empty(t, session.MilestonesToFire(92))
}

func TestMilestonesToFireBelowFirstBand(t *testing.T) {
	registry := NewRegistry(DefaultSessionTTL)
	session := registry.Acquire("", false)

	assert.Empty(t, session.MilestonesToFire(10))
	assert.Equal(t, 10, session.MaxScrollDepth())
}

func TestShouldFireReturnVisitor(t *testing.T) {
	registry := NewRegistry(DefaultSessionTTL)

	returning := registry.Acquire("", true)
	assert.True(t, returning.ShouldFireReturnVisitor())
	assert.False(t, returning.ShouldFireReturnVisitor(), "fires at most once per session")

	fresh := registry.Acquire("", false)
	assert.False(t, fresh.ShouldFireReturnVisitor())
}

func TestRegistryAcquire(t *testing.T) {
	registry := NewRegistry(DefaultSessionTTL)

	created := registry.Acquire("", false)
	require.NotNil(t, created)
	assert.Regexp(t, regexp.MustCompile(`^session_\d+_[0-9a-z]{9}$`), created.ID)

	same := registry.Acquire(created.ID, false)
	assert.Same(t, created, same)

	// An id the registry has never seen becomes a session under that id,
	// preserving continuity with a cookie that outlived a restart.
	adopted := registry.Acquire("session_123_abcdefghi", true)
	assert.Equal(t, "session_123_abcdefghi", adopted.ID)
	assert.True(t, adopted.ShouldFireReturnVisitor())
}

func TestRegistryDrop(t *testing.T) {
	registry := NewRegistry(DefaultSessionTTL)

	session := registry.Acquire("", true)
	session.MilestonesToFire(55)
	registry.Drop(session.ID)

	replacement := registry.Acquire(session.ID, false)
	assert.NotSame(t, session, replacement)
	assert.Equal(t, []int{50}, replacement.MilestonesToFire(55), "dropped state does not survive")
}

func TestRegistryEvictsStaleSessions(t *testing.T) {
	registry := NewRegistry(time.Minute)

	stale := registry.Acquire("", false)
	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-2 * time.Minute)
	stale.mu.Unlock()

	replacement := registry.Acquire(stale.ID, false)
	assert.NotSame(t, stale, replacement)
}

func TestNewSessionID(t *testing.T) {
	first := NewSessionID()
	second := NewSessionID()

	assert.Regexp(t, regexp.MustCompile(`^session_\d+_[0-9a-z]{9}$`), first)
	assert.NotEqual(t, first, second)
}
