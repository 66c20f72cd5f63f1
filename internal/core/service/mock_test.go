package service

import (
	"context"
	"sort"
	"sync"

	"github.com/abiibaabi/grr/internal/core/domain"
)

// mockSessionRepo is an in-memory SessionRepository for tests.
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	err      error // returned by every call when set
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.sessions[s.ID]; ok {
		return domain.ErrSessionConflict
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *mockSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mockSessionRepo) GetByTokenHash(_ context.Context, hash string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TokenHash == hash {
			return s.Clone(), nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockSessionRepo) Update(_ context.Context, s *domain.Session, expected uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if cur.Version != expected {
		return domain.ErrSessionVersionConflict
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) List(_ context.Context, f *SessionFilter) ([]*domain.Session, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var all []*domain.Session
	for _, s := range m.sessions {
		if f.Matches(s) {
			all = append(all, s.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if f.Offset >= total {
		return nil, total, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *mockSessionRepo) CountByUserID(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) DeleteByUserID(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// mockAPIKeyRepo is an in-memory APIKeyRepository for tests.
type mockAPIKeyRepo struct {
	mu   sync.Mutex
	keys map[string]*domain.APIKey
	gets int
}

func newMockAPIKeyRepo() *mockAPIKeyRepo {
	return &mockAPIKeyRepo{keys: make(map[string]*domain.APIKey)}
}

func (m *mockAPIKeyRepo) Create(_ context.Context, k *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[k.KeyID]; ok {
		return domain.ErrAPIKeyConflict
	}
	m.keys[k.KeyID] = k.Clone()
	return nil
}

func (m *mockAPIKeyRepo) Get(_ context.Context, id string) (*domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	k, ok := m.keys[id]
	if !ok {
		return nil, domain.ErrAPIKeyNotFound
	}
	return k.Clone(), nil
}

func (m *mockAPIKeyRepo) Update(_ context.Context, k *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[k.KeyID]; !ok {
		return domain.ErrAPIKeyNotFound
	}
	m.keys[k.KeyID] = k.Clone()
	return nil
}

func (m *mockAPIKeyRepo) List(_ context.Context, f *APIKeyFilter) ([]*domain.APIKey, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.APIKey
	for _, k := range m.keys {
		if f.Role == "" || k.Role == f.Role {
			all = append(all, k.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].KeyID < all[j].KeyID })
	total := len(all)
	if f.Offset >= total {
		return nil, total, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}
