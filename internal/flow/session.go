// Package flow drives the guided intake conversation.
package flow

import "sync"

// Step identifies a position in the intake conversation.
type Step string

const (
	StepStart      Step = "START"
	StepMenu       Step = "MENU"
	StepAskName    Step = "ASK_NAME"
	StepAskEmail   Step = "ASK_EMAIL"
	StepAskMessage Step = "ASK_MESSAGE"
)

// Session holds the in-progress conversation state for one phone. State is
// process-local: a restart discards all sessions and contacts start over.
type Session struct {
	Step      Step
	Name      string
	Email     string
	Reason    string
	Request   string
	Returning bool
	ContactID int64
	AdminID   int64
}

// SessionStore keeps active sessions keyed by normalized phone.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the session for a phone, or nil when none is active.
func (s *SessionStore) Get(phone string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[phone]
}

// Put stores the session for a phone, replacing any existing one.
func (s *SessionStore) Put(phone string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[phone] = sess
}

// Delete removes the session for a phone. No-op when none exists.
func (s *SessionStore) Delete(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
}

// Len reports the number of active sessions. Sessions never expire on their
// own; they are removed only when a flow completes.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
