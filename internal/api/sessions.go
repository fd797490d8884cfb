package api

import (
	"sync"

	"bookchat/internal/dialogue"
	"bookchat/internal/transcript"
)

// Session is one live conversation. Handlers lock it for the whole respond
// cycle so concurrent posts to the same conversation are serialized.
type Session struct {
	ID       string
	Handle   string
	Engine   *dialogue.Engine
	Recorder *transcript.Recorder
	Turn     int
	Done     bool

	mu sync.Mutex
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionStore holds the live conversations in memory. Conversations do not
// survive a restart, only their transcripts do.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *SessionStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
