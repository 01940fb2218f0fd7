package session

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/llm-gateway/internal/observability"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

// Defaults
const (
	DefaultTTL         = 24 * time.Hour
	DefaultMaxSessions = 1000
)

// Config controls session lifetime and capacity
type Config struct {
	// TTL is the idle time after which a session expires
	TTL time.Duration

	// MaxSessions is the capacity ceiling enforced after each creation
	MaxSessions int
}

// Session is a copy of a stored conversation
type Session struct {
	ID        string              `json:"session_id"`
	Messages  []providers.Message `json:"messages"`
	CreatedAt time.Time           `json:"created_at"`
	LastUsed  time.Time           `json:"last_used"`
}

// Summary describes a session without its messages
type Summary struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsed     time.Time `json:"last_used"`
}

// Stats aggregates the live sessions
type Stats struct {
	TotalSessions int        `json:"total_sessions"`
	TotalMessages int        `json:"total_messages"`
	OldestSession *time.Time `json:"oldest_session"`
	NewestSession *time.Time `json:"newest_session"`
}

// entry is a stored session with its LRU position
type entry struct {
	session Session
	element *list.Element
}

func (e *entry) isExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.session.LastUsed) > ttl
}

// touch advances last-used without ever moving it backwards
func (e *entry) touch(now time.Time) {
	if now.After(e.session.LastUsed) {
		e.session.LastUsed = now
	}
}

func (e *entry) snapshot() Session {
	s := e.session
	s.Messages = append([]providers.Message{}, e.session.Messages...)
	return s
}

// Store is an in-memory session store with idle TTL and LRU capacity
// eviction. The LRU list front holds the most recently used session.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	lruList  *list.List
	ttl      time.Duration
	maxSize  int

	logger  *zap.Logger
	metrics observability.Metrics
	now     func() time.Time
}

// NewStore creates a store. Zero config values select the defaults.
func NewStore(cfg Config, logger *zap.Logger, metrics observability.Metrics) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Store{
		sessions: make(map[string]*entry),
		lruList:  list.New(),
		ttl:      cfg.TTL,
		maxSize:  cfg.MaxSessions,
		logger:   logger.Named("sessions"),
		metrics:  metrics,
		now:      time.Now,
	}
}

// GetOrCreate returns the live session id, touching it. An empty, unknown
// or expired id mints a new session, after which eviction runs.
func (s *Store) GetOrCreate(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e := s.live(id, now); e != nil {
		e.touch(now)
		s.lruList.MoveToFront(e.element)
		return e.snapshot()
	}

	newID := s.newID(now)
	e := &entry{session: Session{
		ID:        newID,
		Messages:  []providers.Message{},
		CreatedAt: now,
		LastUsed:  now,
	}}
	e.element = s.lruList.PushFront(newID)
	s.sessions[newID] = e

	s.logger.Debug("session created", zap.String("session_id", newID))
	s.evict(now)
	s.metrics.SetActiveSessions(len(s.sessions))

	return e.snapshot()
}

// Append adds msgs to the session in order. Unknown ids are ignored.
func (s *Store) Append(id string, msgs ...providers.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := s.live(id, now)
	if e == nil {
		s.logger.Warn("append to unknown session ignored", zap.String("session_id", id))
		return
	}

	e.session.Messages = append(e.session.Messages, msgs...)
	e.touch(now)
	s.lruList.MoveToFront(e.element)

	s.logger.Debug("messages appended",
		zap.String("session_id", id),
		zap.Int("added", len(msgs)),
		zap.Int("total", len(e.session.Messages)))
}

// History returns a copy of the session messages, empty if absent
func (s *Store) History(id string) []providers.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(id, s.now())
	if e == nil {
		return []providers.Message{}
	}
	return append([]providers.Message{}, e.session.Messages...)
}

// Get returns a copy of the session for inspection
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(id, s.now())
	if e == nil {
		return Session{}, false
	}
	return e.snapshot(), true
}

// Delete removes a live session
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live(id, s.now()) == nil {
		return false
	}
	s.remove(id)
	s.metrics.SetActiveSessions(len(s.sessions))
	s.logger.Debug("session deleted", zap.String("session_id", id))
	return true
}

// List returns summaries of the live sessions, most recently used first
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	summaries := make([]Summary, 0, len(s.sessions))
	for el := s.lruList.Front(); el != nil; el = el.Next() {
		e := s.sessions[el.Value.(string)]
		if e.isExpired(now, s.ttl) {
			continue
		}
		summaries = append(summaries, Summary{
			ID:           e.session.ID,
			MessageCount: len(e.session.Messages),
			CreatedAt:    e.session.CreatedAt,
			LastUsed:     e.session.LastUsed,
		})
	}
	return summaries
}

// Stats returns aggregate counts over the live sessions
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var stats Stats
	for _, e := range s.sessions {
		if e.isExpired(now, s.ttl) {
			continue
		}
		created := e.session.CreatedAt
		stats.TotalSessions++
		stats.TotalMessages += len(e.session.Messages)
		if stats.OldestSession == nil || created.Before(*stats.OldestSession) {
			stats.OldestSession = &created
		}
		if stats.NewestSession == nil || created.After(*stats.NewestSession) {
			newest := created
			stats.NewestSession = &newest
		}
	}
	return stats
}

// Sweep removes every expired session and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.sweepExpired(s.now())
	s.metrics.SetActiveSessions(len(s.sessions))
	return removed
}

// Len returns the number of stored sessions, expired ones included
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// live returns the entry for id if present and not expired. An expired
// entry is removed. Must be called with lock held.
func (s *Store) live(id string, now time.Time) *entry {
	if id == "" {
		return nil
	}
	e, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if e.isExpired(now, s.ttl) {
		s.remove(id)
		s.metrics.RecordSessionEviction(observability.EvictionExpired, 1)
		s.logger.Debug("session expired", zap.String("session_id", id))
		return nil
	}
	return e
}

// evict sweeps expired sessions, then drops least recently used sessions
// until the store is within capacity. Must be called with lock held.
func (s *Store) evict(now time.Time) {
	s.sweepExpired(now)

	evicted := 0
	for len(s.sessions) > s.maxSize {
		back := s.lruList.Back()
		if back == nil {
			break
		}
		id := back.Value.(string)
		s.remove(id)
		evicted++
		s.logger.Info("session evicted for capacity", zap.String("session_id", id))
	}
	s.metrics.RecordSessionEviction(observability.EvictionCapacity, evicted)
}

// sweepExpired must be called with lock held
func (s *Store) sweepExpired(now time.Time) int {
	var expired []string
	for id, e := range s.sessions {
		if e.isExpired(now, s.ttl) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.remove(id)
		s.logger.Info("expired session removed", zap.String("session_id", id))
	}
	s.metrics.RecordSessionEviction(observability.EvictionExpired, len(expired))
	return len(expired)
}

// remove must be called with lock held
func (s *Store) remove(id string) {
	if e, ok := s.sessions[id]; ok {
		s.lruList.Remove(e.element)
		delete(s.sessions, id)
	}
}

// newID mints session_<unix ms>_<random>. Must be called with lock held.
func (s *Store) newID(now time.Time) string {
	for {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		id := fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
		if _, taken := s.sessions[id]; !taken {
			return id
		}
	}
}
