package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/nurpe/repairdesk/internal/model"
)

// Store keeps the live sessions in memory.
type Store struct {
	clock clockwork.Clock
	opts  Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(clock clockwork.Clock, opts Options) *Store {
	return &Store{
		clock:    clock,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

func (st *Store) Create(operator model.Operator) *Session {
	s := New(uuid.NewString(), operator, st.clock, st.opts)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
