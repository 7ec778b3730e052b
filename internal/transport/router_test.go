package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/construction-hub/internal/adapter/memory"
	"github.com/alanyang/construction-hub/internal/domain/event"
	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	projectsvc "github.com/alanyang/construction-hub/internal/service/project"
	"github.com/alanyang/construction-hub/internal/transport"
	mcptransport "github.com/alanyang/construction-hub/internal/transport/mcp"
	projecthandler "github.com/alanyang/construction-hub/internal/transport/project"
	wshandler "github.com/alanyang/construction-hub/internal/transport/ws"
)

type app struct {
	handler http.Handler
	bus     *memory.EventBus
}

func newApp(t *testing.T) app {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cache := memory.NewCache()
	bus := memory.NewEventBus()
	svc := projectsvc.NewService(memory.NewStore(),
		projectsvc.WithCache(cache, time.Minute),
		projectsvc.WithEventBus(bus),
	)
	ep := projecthandler.NewEndpoint(svc, transport.ProjectsPath)

	r := transport.NewRouter(ctx, transport.RouterDeps{
		Endpoint: ep,
		Store:    svc,
		EventBus: bus,
		Cache:    cache,
		Hub:      wshandler.NewHub(),
		MCP:      mcptransport.New(ep, "test"),
	}, transport.RouterConfig{ServiceName: "construction-hub", Version: "test", CORSOrigins: []string{"*"}})
	return app{handler: r, bus: bus}
}

func (a app) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return serve(a.handler, req)
}

func TestRouter_ProjectLifecycle(t *testing.T) {
	a := newApp(t)

	var (
		mu     sync.Mutex
		events []event.Type
	)
	_, err := a.bus.Subscribe(context.Background(), event.ChannelProject, func(_ context.Context, e event.Event) {
		mu.Lock()
		events = append(events, e.Type)
		mu.Unlock()
	})
	require.NoError(t, err)

	w := a.do(http.MethodPost, "/api/projects", `{"name":"Riverside Tower","budget":100}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(transport.HeaderRequestID))

	var created domainproject.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ProjectID)
	assert.Equal(t, "/api/projects/"+created.ProjectID, w.Header().Get("Location"))
	assert.False(t, created.CreatedAt.IsZero())

	w = a.do(http.MethodGet, "/api/projects/"+created.ProjectID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPut, "/api/projects/"+created.ProjectID, `{"name":"Riverside Tower","status":"in_progress"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated domainproject.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, domainproject.StatusInProgress, updated.Status)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	w = a.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []domainproject.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = a.do(http.MethodDelete, "/api/projects/"+created.ProjectID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/projects/"+created.ProjectID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	want := []event.Type{event.TypeProjectCreated, event.TypeProjectUpdated, event.TypeProjectDeleted}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return assert.ObjectsAreEqual(want, events)
	}, time.Second, 5*time.Millisecond)
}

func TestRouter_IdempotentCreate(t *testing.T) {
	a := newApp(t)
	headers := map[string]string{transport.HeaderIdempotencyKey: "create-1"}

	first := a.do(http.MethodPost, "/api/projects", `{"name":"Depot"}`, headers)
	second := a.do(http.MethodPost, "/api/projects", `{"name":"Depot"}`, headers)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var list []domainproject.Project
	require.NoError(t, json.Unmarshal(a.do(http.MethodGet, "/api/projects", "", nil).Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestRouter_HealthAndValidation(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "", nil).Code)

	w := a.do(http.MethodPost, "/api/projects", `{"budget":-1}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"name"`)
}

func TestRouter_ConcurrentIdempotentCreateRunsOnce(t *testing.T) {
	a := newApp(t)
	headers := map[string]string{transport.HeaderIdempotencyKey: "create-race"}

	var wg sync.WaitGroup
	codes := make([]int, 4)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = a.do(http.MethodPost, "/api/projects", `{"name":"Depot"}`, headers).Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Contains(t, []int{http.StatusCreated, http.StatusConflict}, code)
	}

	var list []domainproject.Project
	require.NoError(t, json.Unmarshal(a.do(http.MethodGet, "/api/projects", "", nil).Body.Bytes(), &list))
	assert.Len(t, list, 1)
}
