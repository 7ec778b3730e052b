package project_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	"github.com/alanyang/construction-hub/internal/mocks"
	transportproject "github.com/alanyang/construction-hub/internal/transport/project"
)

func newEndpoint(t *testing.T) (*transportproject.Endpoint, *mocks.MockProjectStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProjectStore(ctrl)
	return transportproject.NewEndpoint(store, "/api/projects"), store
}

func requiredName() validation.Errors {
	return validation.Errors{"name": errors.New("is required")}
}

// ── ListProjects ──────────────────────────────────────────────────────────────

func TestListProjects_ReturnsOKWithProjects(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().List(gomock.Any()).Return([]domainproject.Project{{}, {}}, nil)

	out, err := ep.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindOK, out.Kind)

	projects, ok := out.Body.([]domainproject.Project)
	require.True(t, ok)
	assert.Len(t, projects, 2)
}

func TestListProjects_EmptyStoreIsOK(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().List(gomock.Any()).Return(nil, nil)

	out, err := ep.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindOK, out.Kind)
	assert.Equal(t, []domainproject.Project{}, out.Body)
}

func TestListProjects_StoreFaultPropagates(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().List(gomock.Any()).Return(nil, errors.New("db down"))

	_, err := ep.ListProjects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

// ── GetProjectByID ────────────────────────────────────────────────────────────

func TestGetProjectByID_ReturnsOKWithProject(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().GetByID(gomock.Any(), "1").Return(domainproject.Project{ProjectID: "1"}, nil)

	out, err := ep.GetProjectByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindOK, out.Kind)

	p, ok := out.Body.(domainproject.Project)
	require.True(t, ok)
	assert.Equal(t, "1", p.ProjectID)
}

func TestGetProjectByID_ReturnsNotFoundWhenAbsent(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().GetByID(gomock.Any(), "1").
		Return(domainproject.Project{}, fmt.Errorf("get project: %w", domainproject.ErrNotFound))

	out, err := ep.GetProjectByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindNotFound, out.Kind)
	assert.Nil(t, out.Body)
	assert.Equal(t, http.StatusNotFound, out.Status())
}

func TestGetProjectByID_StoreFaultPropagates(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().GetByID(gomock.Any(), "1").Return(domainproject.Project{}, errors.New("timeout"))

	_, err := ep.GetProjectByID(context.Background(), "1")
	require.Error(t, err)
}

// ── CreateProject ─────────────────────────────────────────────────────────────

func TestCreateProject_ReturnsCreatedWhenValid(t *testing.T) {
	ep, store := newEndpoint(t)
	input := domainproject.Project{Name: "Harbour Bridge retrofit"}
	created := domainproject.Project{ProjectID: "p-42", Name: "Harbour Bridge retrofit"}
	store.EXPECT().Insert(gomock.Any(), input).Return(created, nil)

	out, err := ep.CreateProject(context.Background(), input, validation.Errors{})
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindCreated, out.Kind)
	assert.Equal(t, http.StatusCreated, out.Status())
	assert.Equal(t, transportproject.ActionGetProjectByID, out.Action)
	assert.Equal(t, map[string]string{"id": "p-42"}, out.RouteValues)
	assert.Equal(t, "/api/projects/p-42", out.Location)
	assert.Equal(t, created, out.Body)
}

func TestCreateProject_NilAccumulatorIsValid(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(domainproject.Project{ProjectID: "x"}, nil)

	out, err := ep.CreateProject(context.Background(), domainproject.Project{Name: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindCreated, out.Kind)
}

func TestCreateProject_ReturnsBadRequestWithoutCallingStore(t *testing.T) {
	// No Insert expectation: gomock fails the test if the store is touched.
	ep, _ := newEndpoint(t)

	out, err := ep.CreateProject(context.Background(), domainproject.Project{}, requiredName())
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindBadRequest, out.Kind)
	assert.Equal(t, http.StatusBadRequest, out.Status())
	assert.Contains(t, out.Errors, "name")
}

func TestCreateProject_BadRequestEvenWhenInputLooksValid(t *testing.T) {
	ep, _ := newEndpoint(t)

	out, err := ep.CreateProject(context.Background(), domainproject.Project{Name: "fine"}, requiredName())
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindBadRequest, out.Kind)
}

func TestCreateProject_DuplicateIDIsBadRequest(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).
		Return(domainproject.Project{}, fmt.Errorf("insert project a: %w", domainproject.ErrAlreadyExists))

	out, err := ep.CreateProject(context.Background(), domainproject.Project{ProjectID: "a", Name: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindBadRequest, out.Kind)
	assert.Contains(t, out.Errors, "project_id")
}

func TestCreateProject_LocationEscapesID(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(domainproject.Project{ProjectID: "a b"}, nil)

	out, err := ep.CreateProject(context.Background(), domainproject.Project{Name: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/projects/a%20b", out.Location)
}

func TestCreateProject_StoreFaultPropagates(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(domainproject.Project{}, errors.New("db error"))

	_, err := ep.CreateProject(context.Background(), domainproject.Project{Name: "x"}, nil)
	require.Error(t, err)
}

// ── UpdateProject ─────────────────────────────────────────────────────────────

func TestUpdateProject_ReturnsOKWhenValid(t *testing.T) {
	ep, store := newEndpoint(t)
	input := domainproject.Project{ProjectID: "1", Name: "Depot"}
	store.EXPECT().Update(gomock.Any(), input).Return(input, nil)

	out, err := ep.UpdateProject(context.Background(), input, validation.Errors{})
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindOK, out.Kind)
	assert.Equal(t, input, out.Body)
}

func TestUpdateProject_ReturnsBadRequestWithoutCallingStore(t *testing.T) {
	ep, _ := newEndpoint(t)

	out, err := ep.UpdateProject(context.Background(), domainproject.Project{}, requiredName())
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindBadRequest, out.Kind)
}

func TestUpdateProject_ReturnsNotFoundWhenStoreReportsMissing(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Update(gomock.Any(), gomock.Any()).
		Return(domainproject.Project{}, fmt.Errorf("update project: %w", domainproject.ErrNotFound))

	out, err := ep.UpdateProject(context.Background(), domainproject.Project{ProjectID: "9", Name: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindNotFound, out.Kind)
}

// ── DeleteProject ─────────────────────────────────────────────────────────────

func TestDeleteProject_ReturnsOKWhenDeleted(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Delete(gomock.Any(), "1").Return(true, nil)

	out, err := ep.DeleteProject(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindOK, out.Kind)
	assert.Nil(t, out.Body)
}

func TestDeleteProject_ReturnsNotFoundWhenMissing(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Delete(gomock.Any(), "1").Return(false, nil)

	out, err := ep.DeleteProject(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, transportproject.KindNotFound, out.Kind)
}

func TestDeleteProject_StoreFaultPropagates(t *testing.T) {
	ep, store := newEndpoint(t)
	store.EXPECT().Delete(gomock.Any(), "1").Return(false, errors.New("db error"))

	_, err := ep.DeleteProject(context.Background(), "1")
	require.Error(t, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "OK", transportproject.KindOK.String())
	assert.Equal(t, "Created", transportproject.KindCreated.String())
	assert.Equal(t, "BadRequest", transportproject.KindBadRequest.String())
	assert.Equal(t, "NotFound", transportproject.KindNotFound.String())
}
