package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/construction-hub/internal/domain/event"
	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	portcache "github.com/alanyang/construction-hub/internal/port/cache"
	porteventbus "github.com/alanyang/construction-hub/internal/port/eventbus"
	portproject "github.com/alanyang/construction-hub/internal/port/project"
)

var _ portproject.Store = (*Service)(nil)

const cacheKeyPrefix = "project:"

// Service decorates a Store with id assignment, timestamps, a read-through
// cache and change events. It satisfies portproject.Store itself so the
// endpoint can be pointed at either a bare store or the service.
type Service struct {
	repo     portproject.Store
	cache    portcache.Cache
	bus      porteventbus.EventBus
	cacheTTL time.Duration
	now      func() time.Time

	// gen counts completed writes. A read only fills the cache when no write
	// finished while it was in flight, so a row read before a delete cannot
	// be cached after the delete invalidated it.
	genMu sync.Mutex
	gen   uint64
}

type Option func(*Service)

// WithCache enables read-through caching of GetByID.
func WithCache(c portcache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithEventBus publishes a change event after every successful write.
func WithEventBus(bus porteventbus.EventBus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo portproject.Store, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]domainproject.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []domainproject.Project{}
	}
	return projects, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domainproject.Project, error) {
	if p, ok := s.cached(ctx, id); ok {
		return p, nil
	}

	gen := s.generation()
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	s.remember(ctx, p, gen)
	return p, nil
}

func (s *Service) Insert(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	p.Normalize()
	if p.ProjectID == "" {
		p.ProjectID = uuid.NewString()
	}
	now := s.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := s.repo.Insert(ctx, p)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("create project: %w", err)
	}

	slog.InfoContext(ctx, "project created", "project_id", created.ProjectID, "name", created.Name)
	s.publish(ctx, event.TypeProjectCreated, created.ProjectID)
	return created, nil
}

// Update keeps the stored CreatedAt and bumps UpdatedAt.
func (s *Service) Update(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	p.Normalize()

	existing, err := s.repo.GetByID(ctx, p.ProjectID)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("update project: %w", err)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("update project: %w", err)
	}

	s.written(ctx, updated.ProjectID)
	slog.InfoContext(ctx, "project updated", "project_id", updated.ProjectID)
	s.publish(ctx, event.TypeProjectUpdated, updated.ProjectID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}

	s.written(ctx, id)
	if deleted {
		slog.InfoContext(ctx, "project deleted", "project_id", id)
		s.publish(ctx, event.TypeProjectDeleted, id)
	}
	return deleted, nil
}

// Ping forwards to the underlying store when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.repo.(portproject.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Service) cached(ctx context.Context, id string) (domainproject.Project, bool) {
	if s.cache == nil {
		return domainproject.Project{}, false
	}
	data, err := s.cache.Get(ctx, cacheKeyPrefix+id)
	if err != nil {
		if !errors.Is(err, portcache.ErrMiss) {
			slog.WarnContext(ctx, "project cache read failed", "project_id", id, "error", err)
		}
		return domainproject.Project{}, false
	}
	var p domainproject.Project
	if err := json.Unmarshal(data, &p); err != nil {
		slog.WarnContext(ctx, "project cache entry corrupt", "project_id", id, "error", err)
		return domainproject.Project{}, false
	}
	return p, true
}

func (s *Service) generation() uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gen
}

// remember caches p unless a write completed after gen was taken. The check
// and the Set share genMu with written, so an invalidation always lands after
// any Set that passed the check.
func (s *Service) remember(ctx context.Context, p domainproject.Project, gen uint64) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gen != gen {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+p.ProjectID, data, s.cacheTTL); err != nil {
		slog.WarnContext(ctx, "project cache write failed", "project_id", p.ProjectID, "error", err)
	}
}

// written marks a completed write to id and drops its cache entry.
func (s *Service) written(ctx context.Context, id string) {
	s.genMu.Lock()
	s.gen++
	s.genMu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cacheKeyPrefix+id); err != nil {
		slog.WarnContext(ctx, "project cache invalidate failed", "project_id", id, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, t event.Type, id string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.New(t, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish project event", "type", t, "project_id", id, "error", err)
	}
}
