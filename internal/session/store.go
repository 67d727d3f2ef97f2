// Package session holds the ephemeral per-user state of the dashboard: the
// uploaded artifacts and the explicit session objects that replace hidden UI
// globals. Everything lives in process memory for the lifetime of the
// service; nothing is persisted.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// ErrNotFound marks lookups of unknown dataset, boundary, or session IDs.
var ErrNotFound = errors.New("not found")

// Dataset is one parsed tabular upload. The table is immutable after parse
// and shared read-only by every session referencing it.
type Dataset struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Hash       string        `json:"hash"`
	Table      *domain.Table `json:"-"`
	UploadedAt time.Time     `json:"uploaded_at"`
}

// Boundary is one parsed GeoJSON upload.
type Boundary struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Hash       string           `json:"hash"`
	Layer      *domain.Boundary `json:"-"`
	UploadedAt time.Time        `json:"uploaded_at"`
}

// Session binds a dataset (and optional boundary) to the user's column
// selection and filter choices. Renders always recompute from the referenced
// table; the session carries choices, never derived data.
type Session struct {
	ID         string           `json:"id"`
	DatasetID  string           `json:"dataset_id"`
	BoundaryID string           `json:"boundary_id,omitempty"`
	Selection  domain.Selection `json:"selection"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Store is the in-memory registry of uploads and sessions. All access is
// mutex-guarded; session count is capped with least-recently-updated
// eviction.
type Store struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	maxSessions int

	datasets   map[string]*Dataset
	boundaries map[string]*Boundary
	sessions   map[string]*Session
}

// NewStore creates a Store capped at maxSessions concurrent sessions.
func NewStore(maxSessions int, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:       clock,
		maxSessions: maxSessions,
		datasets:    make(map[string]*Dataset),
		boundaries:  make(map[string]*Boundary),
		sessions:    make(map[string]*Session),
	}
}

// AddDataset registers a parsed table and returns its handle.
func (s *Store) AddDataset(name, hash string, table *domain.Table) *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		Hash:       hash,
		Table:      table,
		UploadedAt: s.clock.Now(),
	}
	s.datasets[d.ID] = d
	return d
}

// Dataset looks up a registered dataset.
func (s *Store) Dataset(id string) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// AddBoundary registers a parsed boundary layer and returns its handle.
func (s *Store) AddBoundary(name, hash string, layer *domain.Boundary) *Boundary {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &Boundary{
		ID:         uuid.NewString(),
		Name:       name,
		Hash:       hash,
		Layer:      layer,
		UploadedAt: s.clock.Now(),
	}
	s.boundaries[b.ID] = b
	return b
}

// Boundary looks up a registered boundary layer.
func (s *Store) Boundary(id string) (*Boundary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boundaries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// CreateSession opens a session over a registered dataset and optional
// boundary. Unknown references fail with ErrNotFound.
func (s *Store) CreateSession(datasetID, boundaryID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[datasetID]; !ok {
		return Session{}, ErrNotFound
	}
	if boundaryID != "" {
		if _, ok := s.boundaries[boundaryID]; !ok {
			return Session{}, ErrNotFound
		}
	}

	now := s.clock.Now()
	sess := &Session{
		ID:         uuid.NewString(),
		DatasetID:  datasetID,
		BoundaryID: boundaryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.sessions[sess.ID] = sess
	s.evictIfOverCap()
	return *sess, nil
}

// Session returns a copy of the session state.
func (s *Store) Session(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *sess, nil
}

// UpdateSelection replaces the session's column/filter choices and bumps its
// UpdatedAt.
func (s *Store) UpdateSelection(id string, sel domain.Selection) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	sess.Selection = sel
	sess.UpdatedAt = s.clock.Now()
	return *sess, nil
}

// Touch bumps UpdatedAt so active sessions survive eviction.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.UpdatedAt = s.clock.Now()
	}
}

// SessionCount returns the number of live sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// evictIfOverCap drops the least-recently-updated sessions until the count
// fits the cap. Callers must hold the mutex.
func (s *Store) evictIfOverCap() {
	for len(s.sessions) > s.maxSessions {
		var oldestID string
		var oldest time.Time
		for id, sess := range s.sessions {
			if oldestID == "" || sess.UpdatedAt.Before(oldest) {
				oldestID = id
				oldest = sess.UpdatedAt
			}
		}
		delete(s.sessions, oldestID)
	}
}
