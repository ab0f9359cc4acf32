package tracker

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DefaultSessionTTL is how long an idle tracking session survives before
// the registry forgets it. Mirrors the usual analytics session window.
const DefaultSessionTTL = 30 * time.Minute

// Scroll-depth milestones, in percent. Only the first transition into each
// band fires; reaching a higher band never re-arms a lower one.
var scrollMilestones = []int{90, 75, 50, 25}

// Session holds the per-browsing-session tracking state: the session
// identifier, which scroll milestones already fired, the maximum observed
// scroll depth, and the return-visitor bookkeeping.
type Session struct {
	ID string

	mu                 sync.Mutex
	visitedBefore      bool
	returnVisitorFired bool
	firedMilestones    map[int]bool
	maxScrollDepth     int
	lastSeen           time.Time
}

// MilestonesToFire returns the not-yet-fired milestone for the band the
// given depth falls into, and records the depth for bounce detection.
// Simulating depths 10, 30, 60, 30, 95 fires exactly 25, 50, 90.
func (s *Session) MilestonesToFire(depth int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
	if depth > s.maxScrollDepth {
		s.maxScrollDepth = depth
	}

	for _, milestone := range scrollMilestones {
		if depth >= milestone {
			if s.firedMilestones[milestone] {
				return nil
			}
			s.firedMilestones[milestone] = true
			return []int{milestone}
		}
	}
	return nil
}

// MaxScrollDepth reports the deepest scroll position observed this session.
func (s *Session) MaxScrollDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxScrollDepth
}

// ShouldFireReturnVisitor reports whether a return_visitor event is due:
// the persisted visited marker existed when the session started, and the
// event has not fired yet this session. It fires at most once per session.
func (s *Session) ShouldFireReturnVisitor() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.visitedBefore || s.returnVisitorFired {
		return false
	}
	s.returnVisitorFired = true
	return true
}

// Registry owns the live tracking sessions, keyed by session id. It stands
// in for the browser's per-session storage: acquiring with an empty id
// creates a fresh session, and dropping a session simulates that storage
// being cleared.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewRegistry creates a session registry. Sessions idle longer than ttl are
// evicted opportunistically on acquire.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Acquire returns the session for id, creating it lazily. An empty or
// unknown id yields a new session with a generated id; visitedBefore is
// only consulted at creation time.
func (r *Registry) Acquire(id string, visitedBefore bool) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictStale()

	if id != "" {
		if session, ok := r.sessions[id]; ok {
			session.mu.Lock()
			session.lastSeen = time.Now()
			session.mu.Unlock()
			return session
		}
	}

	if id == "" {
		id = NewSessionID()
	}
	session := &Session{
		ID:              id,
		visitedBefore:   visitedBefore,
		firedMilestones: make(map[int]bool),
		lastSeen:        time.Now(),
	}
	r.sessions[id] = session
	return session
}

// Drop removes a session, simulating cleared session storage.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Reset clears all sessions; intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// evictStale drops sessions idle beyond the ttl. Caller holds r.mu.
func (r *Registry) evictStale() {
	if r.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.ttl)
	for id, session := range r.sessions {
		session.mu.Lock()
		stale := session.lastSeen.Before(cutoff)
		session.mu.Unlock()
		if stale {
			delete(r.sessions, id)
		}
	}
}

const sessionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID generates a session identifier unique enough to group one
// visit's events: a millisecond timestamp plus a random base36 suffix.
func NewSessionID() string {
	suffix := make([]byte, 9)
	max := big.NewInt(int64(len(sessionIDAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			suffix[i] = sessionIDAlphabet[0]
			continue
		}
		suffix[i] = sessionIDAlphabet[n.Int64()]
	}
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}
