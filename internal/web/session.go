// Package web provides the HTTP server and web UI for EmoSic.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-emosic/internal/catalog"
	"github.com/justestif/go-emosic/internal/db"
	"github.com/justestif/go-emosic/internal/session"
)

const (
	sessionCookieName  = "session_id"
	sessionTTL         = 24 * time.Hour
	sessionSweepPeriod = time.Hour
)

// Session is a browser session and its detection state.
type Session struct {
	ID        string
	State     session.State
	CreatedAt time.Time
}

// SessionManager defines the interface for session management.
// Get returns a copy; changes are persisted only through Save.
type SessionManager interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) *Session
	Save(ctx context.Context, sess *Session) error
	GetFromRequest(r *http.Request) *Session
	SetCookie(w http.ResponseWriter, sess *Session)
}

// ============================================================================
// In-Memory Session Store (for development/testing)
// ============================================================================

// SessionStore manages sessions in memory. Expired sessions are dropped when
// looked up and swept at most once per sessionSweepPeriod on Create.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]Session
	lastSweep time.Time
	now       func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create starts a new session with an empty state.
func (s *SessionStore) Create(_ context.Context) (*Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= sessionSweepPeriod {
		s.deleteExpiredLocked(now)
	}
	s.sessions[sess.ID] = sess

	return &sess, nil
}

// Get retrieves a copy of a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}

	if s.expired(sess) {
		delete(s.sessions, id)
		return nil
	}

	return &sess
}

// Save replaces the stored state of an existing session.
func (s *SessionStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[sess.ID]
	if !ok {
		return db.ErrNotFound
	}
	if s.expired(stored) {
		delete(s.sessions, sess.ID)
		return db.ErrNotFound
	}
	stored.State = sess.State
	s.sessions[sess.ID] = stored
	return nil
}

// DeleteExpired removes all expired sessions and reports how many it removed.
func (s *SessionStore) DeleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteExpiredLocked(s.now())
}

func (s *SessionStore) deleteExpiredLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.CreatedAt) > sessionTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	s.lastSweep = now
	return removed
}

func (s *SessionStore) expired(sess Session) bool {
	return s.now().Sub(sess.CreatedAt) > sessionTTL
}

// GetFromRequest extracts the session from the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return s.Get(r.Context(), cookie.Value)
}

// SetCookie sets the session cookie on the response.
func (s *SessionStore) SetCookie(w http.ResponseWriter, sess *Session) {
	setCookie(w, sess)
}

// ============================================================================
// Database-Backed Session Store
// ============================================================================

// DBSessionStore manages sessions in PostgreSQL.
type DBSessionStore struct {
	database *db.DB
}

// NewDBSessionStore creates a new database-backed session store.
func NewDBSessionStore(database *db.DB) *DBSessionStore {
	return &DBSessionStore{database: database}
}

// Create starts a new session and stores it in the database.
func (s *DBSessionStore) Create(ctx context.Context) (*Session, error) {
	now := time.Now()
	row := &db.Session{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}

	if err := s.database.Sessions().Create(ctx, row); err != nil {
		return nil, err
	}

	return &Session{ID: row.ID.String(), CreatedAt: now}, nil
}

// Get retrieves a session by ID from the database.
func (s *DBSessionStore) Get(ctx context.Context, id string) *Session {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	row, err := s.database.Sessions().Get(ctx, parsed)
	if err != nil {
		return nil
	}

	return &Session{
		ID:        row.ID.String(),
		State:     stateFromRow(row),
		CreatedAt: row.CreatedAt,
	}
}

// Save writes the session state to the database.
func (s *DBSessionStore) Save(ctx context.Context, sess *Session) error {
	parsed, err := uuid.Parse(sess.ID)
	if err != nil {
		return db.ErrNotFound
	}

	return s.database.Sessions().UpdateState(ctx, &db.Session{
		ID:        parsed,
		Emotion:   string(sess.State.Emotion),
		Score:     sess.State.Score,
		InputText: sess.State.InputText,
		Language:  sess.State.Language,
		UpdatedAt: time.Now(),
	})
}

// GetFromRequest extracts the session from the request cookie.
func (s *DBSessionStore) GetFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return s.Get(r.Context(), cookie.Value)
}

// SetCookie sets the session cookie on the response.
func (s *DBSessionStore) SetCookie(w http.ResponseWriter, sess *Session) {
	setCookie(w, sess)
}

// ============================================================================
// Helper Functions
// ============================================================================

func stateFromRow(row *db.Session) session.State {
	return session.State{
		Emotion:   catalog.Emotion(row.Emotion),
		Score:     row.Score,
		InputText: row.InputText,
		Language:  row.Language,
	}
}

// setCookie sets the session cookie on the response.
func setCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// Ensure both stores implement SessionManager.
var (
	_ SessionManager = (*SessionStore)(nil)
	_ SessionManager = (*DBSessionStore)(nil)
)
