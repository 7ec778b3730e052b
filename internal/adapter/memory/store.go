package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	portproject "github.com/alanyang/construction-hub/internal/port/project"
)

var _ portproject.Store = (*Store)(nil)

// Store keeps projects in a map. It is the default store for local runs and
// tests; data does not survive a restart.
type Store struct {
	mu       sync.RWMutex
	projects map[string]domainproject.Project
}

func NewStore() *Store {
	return &Store{projects: make(map[string]domainproject.Project)}
}

func (s *Store) List(_ context.Context) ([]domainproject.Project, error) {
	s.mu.RLock()
	out := make([]domainproject.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ProjectID < out[j].ProjectID
	})
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id string) (domainproject.Project, error) {
	s.mu.RLock()
	p, ok := s.projects[id]
	s.mu.RUnlock()
	if !ok {
		return domainproject.Project{}, fmt.Errorf("project %s: %w", id, domainproject.ErrNotFound)
	}
	return p, nil
}

func (s *Store) Insert(_ context.Context, p domainproject.Project) (domainproject.Project, error) {
	if p.ProjectID == "" {
		return domainproject.Project{}, fmt.Errorf("insert project: project_id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[p.ProjectID]; exists {
		return domainproject.Project{}, fmt.Errorf("insert project %s: %w", p.ProjectID, domainproject.ErrAlreadyExists)
	}
	s.projects[p.ProjectID] = p
	return p, nil
}

func (s *Store) Update(_ context.Context, p domainproject.Project) (domainproject.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[p.ProjectID]; !exists {
		return domainproject.Project{}, fmt.Errorf("update project %s: %w", p.ProjectID, domainproject.ErrNotFound)
	}
	s.projects[p.ProjectID] = p
	return p, nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[id]; !exists {
		return false, nil
	}
	delete(s.projects, id)
	return true, nil
}
