package project

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	portproject "github.com/alanyang/construction-hub/internal/port/project"
)

// Kind is the category of response an endpoint operation produces.
type Kind int

const (
	KindOK Kind = iota
	KindCreated
	KindBadRequest
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindCreated:
		return "Created"
	case KindBadRequest:
		return "BadRequest"
	case KindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// ActionGetProjectByID names the retrieval operation a Created outcome points at.
const ActionGetProjectByID = "GetProjectByID"

// Outcome is the transport-neutral result of an endpoint operation.
// Body is nil when the response carries no payload.
type Outcome struct {
	Kind Kind
	Body any

	// Set on Created only.
	Action      string
	RouteValues map[string]string
	Location    string

	// Set on BadRequest only.
	Errors validation.Errors
}

// Status maps the outcome to its HTTP status code.
func (o Outcome) Status() int {
	switch o.Kind {
	case KindCreated:
		return http.StatusCreated
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

// Endpoint turns store results into outcomes. It holds no mutable state and is
// safe for concurrent use.
type Endpoint struct {
	store    portproject.Store
	basePath string
}

// NewEndpoint builds an endpoint over store. basePath is the collection route
// used to build Location values for created resources, e.g. "/api/projects".
func NewEndpoint(store portproject.Store, basePath string) *Endpoint {
	return &Endpoint{store: store, basePath: basePath}
}

func (e *Endpoint) ListProjects(ctx context.Context) (Outcome, error) {
	projects, err := e.store.List(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if projects == nil {
		projects = []domainproject.Project{}
	}
	return Outcome{Kind: KindOK, Body: projects}, nil
}

func (e *Endpoint) GetProjectByID(ctx context.Context, id string) (Outcome, error) {
	p, err := e.store.GetByID(ctx, id)
	if errors.Is(err, domainproject.ErrNotFound) {
		return Outcome{Kind: KindNotFound}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: KindOK, Body: p}, nil
}

// CreateProject short-circuits to BadRequest when errs holds any field error;
// the store is not called in that case. A taken id is also a BadRequest.
func (e *Endpoint) CreateProject(ctx context.Context, input domainproject.Project, errs validation.Errors) (Outcome, error) {
	if len(errs) > 0 {
		return badRequest(errs), nil
	}

	created, err := e.store.Insert(ctx, input)
	if errors.Is(err, domainproject.ErrAlreadyExists) {
		return badRequest(validation.Errors{"project_id": errors.New("already exists")}), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Kind:        KindCreated,
		Body:        created,
		Action:      ActionGetProjectByID,
		RouteValues: map[string]string{"id": created.ProjectID},
		Location:    strings.TrimSuffix(e.basePath, "/") + "/" + url.PathEscape(created.ProjectID),
	}, nil
}

func (e *Endpoint) UpdateProject(ctx context.Context, input domainproject.Project, errs validation.Errors) (Outcome, error) {
	if len(errs) > 0 {
		return badRequest(errs), nil
	}

	updated, err := e.store.Update(ctx, input)
	if errors.Is(err, domainproject.ErrNotFound) {
		return Outcome{Kind: KindNotFound}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: KindOK, Body: updated}, nil
}

func (e *Endpoint) DeleteProject(ctx context.Context, id string) (Outcome, error) {
	deleted, err := e.store.Delete(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !deleted {
		return Outcome{Kind: KindNotFound}, nil
	}
	return Outcome{Kind: KindOK}, nil
}

func badRequest(errs validation.Errors) Outcome {
	return Outcome{Kind: KindBadRequest, Errors: errs}
}
