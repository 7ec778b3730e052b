package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
	transportproject "github.com/alanyang/construction-hub/internal/transport/project"
)

// toolResult is the JSON text every tool returns. Status mirrors the HTTP
// status the same request would get on the REST surface.
type toolResult struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

// RegisterTools registers the project CRUD tools on the server.
// [OCP] Add a new tool by adding a new AddTool call; server.go never changes.
func RegisterTools(s *mcpserver.MCPServer, ep *transportproject.Endpoint) {
	s.AddTool(mcpmcp.NewTool("list_projects",
		mcpmcp.WithDescription("List every construction project, oldest first."),
	), listProjectsHandler(ep))

	s.AddTool(mcpmcp.NewTool("get_project",
		mcpmcp.WithDescription("Fetch one construction project by id. Status 404 when it does not exist."),
		mcpmcp.WithString("project_id", mcpmcp.Required(), mcpmcp.Description("Project id")),
	), getProjectHandler(ep))

	s.AddTool(mcpmcp.NewTool("create_project",
		append([]mcpmcp.ToolOption{
			mcpmcp.WithDescription("Create a construction project. Status 400 with field errors when the input is invalid."),
			mcpmcp.WithString("name", mcpmcp.Required(), mcpmcp.Description("Project name")),
		}, projectFieldOptions()...)...,
	), createProjectHandler(ep))

	s.AddTool(mcpmcp.NewTool("update_project",
		append([]mcpmcp.ToolOption{
			mcpmcp.WithDescription("Replace a construction project. Every field is overwritten, so pass the full record."),
			mcpmcp.WithString("project_id", mcpmcp.Required(), mcpmcp.Description("Project id")),
			mcpmcp.WithString("name", mcpmcp.Required(), mcpmcp.Description("Project name")),
		}, projectFieldOptions()...)...,
	), updateProjectHandler(ep))

	s.AddTool(mcpmcp.NewTool("delete_project",
		mcpmcp.WithDescription("Delete a construction project. Status 404 when it does not exist."),
		mcpmcp.WithString("project_id", mcpmcp.Required(), mcpmcp.Description("Project id")),
	), deleteProjectHandler(ep))
}

func projectFieldOptions() []mcpmcp.ToolOption {
	statuses := make([]string, 0, len(domainproject.Statuses))
	for _, st := range domainproject.Statuses {
		statuses = append(statuses, string(st))
	}
	return []mcpmcp.ToolOption{
		mcpmcp.WithString("description", mcpmcp.Description("Free-text description")),
		mcpmcp.WithString("location", mcpmcp.Description("Site location")),
		mcpmcp.WithString("client_name", mcpmcp.Description("Client name")),
		mcpmcp.WithString("status", mcpmcp.Enum(statuses...), mcpmcp.Description("Lifecycle status, default planned")),
		mcpmcp.WithNumber("budget", mcpmcp.Description("Budget, must not be negative")),
		mcpmcp.WithString("start_date", mcpmcp.Description("RFC 3339 start date")),
		mcpmcp.WithString("end_date", mcpmcp.Description("RFC 3339 end date, not before start_date")),
	}
}

func listProjectsHandler(ep *transportproject.Endpoint) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, _ mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		return render(ep.ListProjects(ctx))
	}
}

func getProjectHandler(ep *transportproject.Endpoint) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := strings.TrimSpace(mcpmcp.ParseString(req, "project_id", ""))
		return render(ep.GetProjectByID(ctx, id))
	}
}

func createProjectHandler(ep *transportproject.Endpoint) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		p, errs := projectFromArgs(req)
		if len(errs) == 0 {
			transportproject.MergeErrors(errs, p.Validate())
		}
		return render(ep.CreateProject(ctx, p, errs))
	}
}

func updateProjectHandler(ep *transportproject.Endpoint) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		p, errs := projectFromArgs(req)
		if len(errs) == 0 {
			transportproject.MergeErrors(errs, p.ValidateForUpdate())
		}
		return render(ep.UpdateProject(ctx, p, errs))
	}
}

func deleteProjectHandler(ep *transportproject.Endpoint) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := strings.TrimSpace(mcpmcp.ParseString(req, "project_id", ""))
		return render(ep.DeleteProject(ctx, id))
	}
}

// projectFromArgs builds a normalized project from tool arguments. Unparseable
// dates are recorded in the returned accumulator.
func projectFromArgs(req mcpmcp.CallToolRequest) (domainproject.Project, validation.Errors) {
	errs := validation.Errors{}
	p := domainproject.Project{
		ProjectID:   mcpmcp.ParseString(req, "project_id", ""),
		Name:        mcpmcp.ParseString(req, "name", ""),
		Description: mcpmcp.ParseString(req, "description", ""),
		Location:    mcpmcp.ParseString(req, "location", ""),
		ClientName:  mcpmcp.ParseString(req, "client_name", ""),
		Status:      domainproject.Status(mcpmcp.ParseString(req, "status", "")),
		Budget:      mcpmcp.ParseFloat64(req, "budget", 0),
	}
	for field, dst := range map[string]**time.Time{"start_date": &p.StartDate, "end_date": &p.EndDate} {
		raw := strings.TrimSpace(mcpmcp.ParseString(req, field, ""))
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errs[field] = errors.New("must be an RFC 3339 timestamp")
			continue
		}
		*dst = &t
	}
	p.Normalize()
	return p, errs
}

func render(out transportproject.Outcome, err error) (*mcpmcp.CallToolResult, error) {
	res := toolResult{Status: out.Status(), Body: out.Body}
	switch {
	case err != nil:
		res = toolResult{Status: 500, Body: map[string]string{"error": err.Error()}}
	case out.Kind == transportproject.KindBadRequest:
		res.Body = map[string]any{"errors": out.Errors}
	case out.Kind == transportproject.KindCreated:
		res.Body = map[string]any{"location": out.Location, "project": out.Body}
	}

	data, mErr := json.Marshal(res)
	if mErr != nil {
		return nil, fmt.Errorf("marshal tool result: %w", mErr)
	}
	r := mcpmcp.NewToolResultText(string(data))
	r.IsError = err != nil
	return r, nil
}
