// Package session keeps per-browser presentation state keyed by a cookie id
package session

import (
	"container/list"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"scamdash/internal/models"
)

// CookieName is the cookie that carries the session id
const CookieName = "scamdash_session"

// DefaultMaxSessions bounds memory when clients never send the cookie back
const DefaultMaxSessions = 10000

// Store holds UIState per session with TTL and size-based eviction
type Store struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	logger  *slog.Logger

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type entry struct {
	id        string
	state     models.UIState
	expiresAt time.Time
}

// NewStore creates a session store; a non-positive maxSize uses DefaultMaxSessions
func NewStore(ttl time.Duration, maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxSessions
	}
	return &Store{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
		logger:  slog.Default().With("component", "session"),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// NewID returns a fresh random session id
func NewID() string {
	return uuid.NewString()
}

// Get returns the state for id. Unknown or expired sessions start hidden.
func (s *Store) Get(id string) models.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if !ok {
		return models.UIState{}
	}
	e := elem.Value.(*entry)
	if s.now().After(e.expiresAt) {
		s.removeElement(elem)
		return models.UIState{}
	}
	s.lru.MoveToFront(elem)
	return e.state
}

// Toggle flips drill-down visibility for id and returns the new state
func (s *Store) Toggle(id string) models.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state models.UIState
	if elem, ok := s.items[id]; ok {
		e := elem.Value.(*entry)
		if !s.now().After(e.expiresAt) {
			state = e.state
		}
	}
	state.Toggle()
	s.set(id, state)
	return state
}

func (s *Store) set(id string, state models.UIState) {
	e := &entry{id: id, state: state, expiresAt: s.now().Add(s.ttl)}

	if elem, ok := s.items[id]; ok {
		elem.Value = e
		s.lru.MoveToFront(elem)
		return
	}

	s.items[id] = s.lru.PushFront(e)
	if s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
}

func (s *Store) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(s.items, e.id)
	s.lru.Remove(elem)
}

// CleanExpired removes expired sessions and returns how many were dropped
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []*list.Element
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry).expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		s.removeElement(elem)
	}
	return len(expired)
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// StartCleanup sweeps expired sessions every interval until ctx is done or Stop is called
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if n := s.CleanExpired(); n > 0 {
					s.logger.Debug("expired sessions removed", "count", n)
				}
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it to exit
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
}

// ID returns the session id from the request cookie, issuing a new cookie
// on w when the request has none
func (s *Store) ID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Lookup returns the state for the request's session without issuing a cookie
func (s *Store) Lookup(r *http.Request) models.UIState {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return models.UIState{}
	}
	return s.Get(c.Value)
}
