package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/construction-hub/internal/adapter/sqlite"
	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
)

var projectColumns = []string{
	"project_id", "name", "description", "location", "client_name", "status", "budget",
	"start_date", "end_date", "created_at", "updated_at",
}

const createdText = "2025-01-02T03:04:05.000000000Z"

func setupMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.New(db), mock
}

func openMemoryStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.New(db)
}

// ── sqlmock ───────────────────────────────────────────────────────────────────

func TestStore_GetByID_Mock(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectQuery(`SELECT project_id`).
			WithArgs("1").
			WillReturnRows(sqlmock.NewRows(projectColumns).
				AddRow("1", "Depot", "", "Leeds", "", "planned", 10.5, nil, nil, createdText, createdText))

		got, err := store.GetByID(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "Depot", got.Name)
		assert.Equal(t, domainproject.StatusPlanned, got.Status)
		assert.Nil(t, got.StartDate)
		assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), got.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectQuery(`SELECT project_id`).WithArgs("1").WillReturnError(sql.ErrNoRows)

		_, err := store.GetByID(context.Background(), "1")
		assert.ErrorIs(t, err, domainproject.ErrNotFound)
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectQuery(`SELECT project_id`).WithArgs("1").WillReturnError(errors.New("disk I/O error"))

		_, err := store.GetByID(context.Background(), "1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domainproject.ErrNotFound)
		assert.Contains(t, err.Error(), "get project")
	})
}

func TestStore_Update_Mock(t *testing.T) {
	t.Run("no rows affected maps to ErrNotFound", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectExec(`UPDATE projects`).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := store.Update(context.Background(), domainproject.Project{ProjectID: "9", Name: "x"})
		assert.ErrorIs(t, err, domainproject.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("updated", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectExec(`UPDATE projects`).WillReturnResult(sqlmock.NewResult(0, 1))

		got, err := store.Update(context.Background(), domainproject.Project{ProjectID: "1", Name: "x"})
		require.NoError(t, err)
		assert.Equal(t, "1", got.ProjectID)
	})
}

func TestStore_Delete_Mock(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectExec(`DELETE FROM projects`).WithArgs("1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM projects`).WithArgs("2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM projects`).WithArgs("3").WillReturnError(errors.New("locked"))

	ok, err := store.Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(context.Background(), "2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Delete(context.Background(), "3")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_List_Mock(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery(`ORDER BY created_at, project_id`).
		WillReturnRows(sqlmock.NewRows(projectColumns).
			AddRow("a", "A", "", "", "", "planned", 0.0, nil, nil, createdText, createdText).
			AddRow("b", "B", "", "", "", "completed", 0.0, "2025-01-01T00:00:00.000000000Z", nil, createdText, createdText))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[1].StartDate)
	assert.Equal(t, 2025, list[1].StartDate.Year())
}

// ── real in-memory database ───────────────────────────────────────────────────

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	created := time.Date(2025, 3, 1, 9, 30, 0, 123, time.UTC)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	p := domainproject.Project{
		ProjectID: "p-1", Name: "Riverside Tower", Location: "Leeds",
		Status: domainproject.StatusInProgress, Budget: 2_500_000,
		StartDate: &start, CreatedAt: created, UpdatedAt: created,
	}

	_, err := store.Insert(ctx, p)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Budget, got.Budget)
	assert.True(t, created.Equal(got.CreatedAt))
	require.NotNil(t, got.StartDate)
	assert.True(t, start.Equal(*got.StartDate))
	assert.Nil(t, got.EndDate)

	p.Name = "Riverside Tower II"
	p.UpdatedAt = created.Add(time.Hour)
	_, err = store.Update(ctx, p)
	require.NoError(t, err)

	got, err = store.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Riverside Tower II", got.Name)

	_, err = store.Insert(ctx, p)
	assert.ErrorIs(t, err, domainproject.ErrAlreadyExists)

	ok, err := store.Delete(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.GetByID(ctx, "p-1")
	assert.ErrorIs(t, err, domainproject.ErrNotFound)
	assert.NoError(t, store.Ping(ctx))
}

func TestStore_ListOrdersByCreatedAtThenID(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, p := range []domainproject.Project{
		{ProjectID: "c", Name: "c", CreatedAt: base.Add(time.Second), UpdatedAt: base},
		{ProjectID: "b", Name: "b", CreatedAt: base, UpdatedAt: base},
		{ProjectID: "a", Name: "a", CreatedAt: base, UpdatedAt: base},
		{ProjectID: "d", Name: "d", CreatedAt: base.Add(500 * time.Millisecond), UpdatedAt: base},
	} {
		_, err := store.Insert(ctx, p)
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ProjectID)
	}
	assert.Equal(t, []string{"a", "b", "d", "c"}, ids)
}

func TestStore_EmptyList(t *testing.T) {
	list, err := openMemoryStore(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
