//go:build integration

package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgproject "github.com/alanyang/construction-hub/internal/adapter/postgres/project"
	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	"github.com/alanyang/construction-hub/internal/testutil"
)

func newProject() domainproject.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	start := now.AddDate(0, 1, 0)
	return domainproject.Project{
		ProjectID: uuid.NewString(),
		Name:      "test-" + uuid.NewString()[:8],
		Location:  "Leeds",
		Status:    domainproject.StatusPlanned,
		Budget:    1000,
		StartDate: &start,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestProjectRepo_Insert(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgproject.New(pool)

	proj := newProject()
	created, err := repo.Insert(ctx, proj)
	require.NoError(t, err)
	assert.Equal(t, proj.ProjectID, created.ProjectID)
	assert.Equal(t, proj.Name, created.Name)
	require.NotNil(t, created.StartDate)
	assert.True(t, proj.StartDate.Equal(*created.StartDate))
	assert.Nil(t, created.EndDate)

	_, err = repo.Insert(ctx, proj)
	assert.ErrorIs(t, err, domainproject.ErrAlreadyExists)
}

func TestProjectRepo_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		pool := testutil.SetupTestDB(t)
		ctx := context.Background()
		repo := pgproject.New(pool)

		proj := newProject()
		_, err := repo.Insert(ctx, proj)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, proj.ProjectID)
		require.NoError(t, err)
		assert.Equal(t, proj.ProjectID, got.ProjectID)
		assert.Equal(t, domainproject.StatusPlanned, got.Status)
	})

	t.Run("not found returns ErrNotFound", func(t *testing.T) {
		pool := testutil.SetupTestDB(t)
		repo := pgproject.New(pool)

		_, err := repo.GetByID(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, domainproject.ErrNotFound)
	})
}

func TestProjectRepo_Update(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgproject.New(pool)

	proj := newProject()
	_, err := repo.Insert(ctx, proj)
	require.NoError(t, err)

	proj.Name = "renamed"
	proj.Status = domainproject.StatusInProgress
	updated, err := repo.Update(ctx, proj)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, domainproject.StatusInProgress, updated.Status)

	missing := newProject()
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, domainproject.ErrNotFound)
}

func TestProjectRepo_Delete(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgproject.New(pool)

	proj := newProject()
	_, err := repo.Insert(ctx, proj)
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, proj.ProjectID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, proj.ProjectID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProjectRepo_ListContainsInserted(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgproject.New(pool)

	proj := newProject()
	_, err := repo.Insert(ctx, proj)
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)

	found := false
	for _, p := range list {
		if p.ProjectID == proj.ProjectID {
			found = true
		}
	}
	assert.True(t, found)
	assert.NoError(t, repo.Ping(ctx))
}
