// Package session keeps loaded survey tables between dashboard requests.
package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"surveydash/domain/core"
	"surveydash/domain/dataset"
	"surveydash/internal"
	"surveydash/internal/metrics"
)

// Session holds one loaded dataset. The table is never mutated after
// creation; every command derives new tables from it.
type Session struct {
	ID             core.SessionID `json:"id"`
	Dataset        string         `json:"dataset"`
	SubmittedAfter time.Time      `json:"submitted_after"`
	Table          *dataset.Table `json:"-"`
	LoadedAt       time.Time      `json:"loaded_at"`
}

// Info is the serializable view of a session
type Info struct {
	ID             core.SessionID `json:"id"`
	Dataset        string         `json:"dataset"`
	SubmittedAfter time.Time      `json:"submitted_after"`
	LoadedAt       time.Time      `json:"loaded_at"`
	Rows           int            `json:"rows"`
	Columns        []string       `json:"columns"`
}

// Info summarizes the session
func (s *Session) Info() Info {
	return Info{
		ID:             s.ID,
		Dataset:        s.Dataset,
		SubmittedAfter: s.SubmittedAfter,
		LoadedAt:       s.LoadedAt,
		Rows:           s.Table.Len(),
		Columns:        s.Table.Columns(),
	}
}

// Manager stores sessions until they have been idle for the TTL
type Manager struct {
	store  *cache.Cache
	ttl    time.Duration
	now    func() time.Time
	logger *internal.Logger
}

// NewManager creates a session manager. Expired sessions are swept at half
// the TTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	m := &Manager{
		store:  cache.New(ttl, ttl/2),
		ttl:    ttl,
		now:    time.Now,
		logger: internal.DefaultLogger.WithComponent("SessionManager"),
	}
	m.store.OnEvicted(func(id string, _ interface{}) {
		metrics.ActiveSessions.Dec()
		m.logger.Debug("session %s evicted", id)
	})
	return m
}

// Create registers a new session over table
func (m *Manager) Create(datasetName string, submittedAfter time.Time, table *dataset.Table) *Session {
	s := &Session{
		ID:             core.NewSessionID(),
		Dataset:        datasetName,
		SubmittedAfter: submittedAfter,
		Table:          table,
		LoadedAt:       m.now().UTC(),
	}
	m.store.SetDefault(s.ID.String(), s)
	metrics.ActiveSessions.Inc()
	m.logger.Info("session %s created for %s with %d rows", s.ID, datasetName, table.Len())
	return s
}

// Get returns the session and extends its lifetime
func (m *Manager) Get(id core.SessionID) (*Session, error) {
	v, ok := m.store.Get(id.String())
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	s := v.(*Session)
	// Replace fails when the janitor evicted the session after the lookup
	if err := m.store.Replace(id.String(), s, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete removes the session
func (m *Manager) Delete(id core.SessionID) error {
	if _, ok := m.store.Get(id.String()); !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	m.store.Delete(id.String())
	return nil
}

// List returns live sessions, most recently loaded first
func (m *Manager) List() []*Session {
	items := m.store.Items()
	sessions := make([]*Session, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(*Session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].LoadedAt.Equal(sessions[j].LoadedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].LoadedAt.After(sessions[j].LoadedAt)
	})
	return sessions
}

// Len reports the number of live sessions
func (m *Manager) Len() int {
	return m.store.ItemCount()
}
