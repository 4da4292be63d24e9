package withdrawal

import (
	"sync"
	"time"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
)

// Session is one delivery being composed or edited.
type Session struct {
	ID string
	// DeliveryID is set when the session edits a stored delivery.
	DeliveryID string
	Previous   *models.Delivery
	Ledger     inventory.Ledger
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionManager holds editing sessions in memory. Each session owns its
// ledger; concurrent edits of the same delivery are last-write-wins.
type SessionManager struct {
	sessions map[string]Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Put stores the session, stamping its update time.
func (sm *SessionManager) Put(session Session) Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	now := sm.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	sm.sessions[session.ID] = session
	return session
}

// Get retrieves a session by id.
func (sm *SessionManager) Get(id string) (Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, ok := sm.sessions[id]
	return session, ok
}

// Delete removes a session.
func (sm *SessionManager) Delete(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.sessions[id]
	delete(sm.sessions, id)
	return ok
}

// Len is the number of open sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Expire drops sessions idle for longer than ttl and returns how many were dropped.
func (sm *SessionManager) Expire(ttl time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cutoff := sm.now().Add(-ttl)
	dropped := 0
	for id, session := range sm.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(sm.sessions, id)
			dropped++
		}
	}
	return dropped
}
