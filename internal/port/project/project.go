//go:generate mockgen -source=project.go -destination=../../mocks/mock_project_store.go -package=mocks -mock_names=Store=MockProjectStore,Pinger=MockPinger

package project

import (
	"context"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
)

// Store manages project persistence.
// [DIP] the endpoint and the service depend on this interface, not on a concrete storage.
type Store interface {
	// List returns every project ordered by creation time, then id.
	List(ctx context.Context) ([]domainproject.Project, error)

	// GetByID returns an error wrapping domainproject.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (domainproject.Project, error)

	Insert(ctx context.Context, p domainproject.Project) (domainproject.Project, error)

	// Update replaces the stored record with the same ProjectID. Returns an error
	// wrapping domainproject.ErrNotFound when no such record exists.
	Update(ctx context.Context, p domainproject.Project) (domainproject.Project, error)

	// Delete reports whether a matching record existed and was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Pinger is implemented by stores backed by a remote database.
type Pinger interface {
	Ping(ctx context.Context) error
}
