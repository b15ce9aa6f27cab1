package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/meo-insight/internal/meo/types"
)

// SearchRunner executes one search; *Orchestrator is the production runner
type SearchRunner interface {
	Run(ctx context.Context, query string) (*types.SearchOutcome, error)
}

// Session holds one visitor's search state. States move
// idle -> searching -> success | empty | failed, and a new search may start
// from any state except searching.
type Session struct {
	mu     sync.Mutex
	id     string
	runner SearchRunner
	now    func() time.Time

	state      types.SearchState
	query      string
	results    []types.ResultEntry
	errMsg     string
	startedAt  *time.Time
	finishedAt *time.Time
	lastSeen   time.Time
}

// NewSession 创建空闲会话
func NewSession(id string, runner SearchRunner) *Session {
	return newSession(id, runner, time.Now)
}

func newSession(id string, runner SearchRunner, now func() time.Time) *Session {
	return &Session{
		id:       id,
		runner:   runner,
		now:      now,
		state:    types.SearchStateIdle,
		results:  []types.ResultEntry{},
		lastSeen: now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Submit runs a search and blocks until it finishes. While a search is
// running further submissions are rejected with ErrSearchInProgress and
// leave the session untouched. The returned error is the lookup failure,
// already reflected in the snapshot as the failed state.
func (s *Session) Submit(ctx context.Context, query string) (types.SessionSnapshot, error) {
	s.mu.Lock()
	if s.state == types.SearchStateSearching {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrSearchInProgress
	}
	started := s.now()
	s.state = types.SearchStateSearching
	s.query = query
	s.results = []types.ResultEntry{}
	s.errMsg = ""
	s.startedAt = &started
	s.finishedAt = nil
	s.lastSeen = started
	s.mu.Unlock()

	outcome, err := s.run(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	finished := s.now()
	s.finishedAt = &finished
	s.lastSeen = finished

	if err != nil {
		s.state = types.SearchStateFailed
		s.errMsg = types.SearchFailedMessage
		return s.snapshotLocked(), err
	}

	s.state = outcome.State
	if outcome.Results != nil {
		s.results = outcome.Results
	}
	return s.snapshotLocked(), nil
}

// run converts a panic escaping the runner into an error so the session
// always leaves the searching state.
func (s *Session) run(ctx context.Context, query string) (outcome *types.SearchOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = nil, fmt.Errorf("%w: %v", ErrSearchPanicked, r)
		}
	}()

	outcome, err = s.runner.Run(ctx, query)
	if err == nil && outcome == nil {
		err = ErrLookupFailed
	}
	return outcome, err
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() types.SessionSnapshot {
	results := make([]types.ResultEntry, len(s.results))
	copy(results, s.results)

	return types.SessionSnapshot{
		ID:         s.id,
		State:      s.state,
		Query:      s.query,
		Results:    results,
		Error:      s.errMsg,
		StartedAt:  copyTime(s.startedAt),
		FinishedAt: copyTime(s.finishedAt),
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// expired reports whether the session has been idle longer than ttl.
// A running search keeps the session alive.
func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != types.SearchStateSearching && now.Sub(s.lastSeen) > ttl
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// SessionStore keeps visitor sessions in memory, keyed by a cookie id
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	runner   SearchRunner
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore 创建会话存储
func NewSessionStore(runner SearchRunner, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		runner:   runner,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for id, if present
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		sess.touch()
	}
	return sess, ok
}

// GetOrCreate returns the session for id, creating a fresh one under a new
// id when id is empty or unknown. created is true for a new session.
func (st *SessionStore) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := st.Get(id); ok {
			return sess, false
		}
	}

	sess = newSession(uuid.NewString(), st.runner, st.now)
	st.mu.Lock()
	st.sessions[sess.id] = sess
	st.mu.Unlock()
	return sess, true
}

// Len 当前会话数
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep evicts idle sessions and returns how many were removed
func (st *SessionStore) Sweep() int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if sess.expired(now, st.ttl) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done
func (st *SessionStore) Run(ctx context.Context) {
	interval := st.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
