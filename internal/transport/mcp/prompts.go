package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	transportproject "github.com/alanyang/construction-hub/internal/transport/project"
)

// RegisterPrompts registers the project_brief prompt, which hands a client the
// current record of one project as context.
func RegisterPrompts(s *mcpserver.MCPServer, ep *transportproject.Endpoint) {
	s.AddPrompt(
		mcpmcp.NewPrompt("project_brief",
			mcpmcp.WithPromptDescription("Brief on one construction project: its current record as JSON."),
			mcpmcp.WithArgument("project_id",
				mcpmcp.ArgumentDescription("Project id"),
				mcpmcp.RequiredArgument(),
			),
		),
		projectBriefHandler(ep),
	)
}

func projectBriefHandler(ep *transportproject.Endpoint) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcpmcp.GetPromptRequest) (*mcpmcp.GetPromptResult, error) {
		id := req.Params.Arguments["project_id"]

		out, err := ep.GetProjectByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get project %s: %w", id, err)
		}
		if out.Kind == transportproject.KindNotFound {
			return nil, fmt.Errorf("project %s not found", id)
		}

		data, err := json.MarshalIndent(out.Body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal project: %w", err)
		}

		return mcpmcp.NewGetPromptResult(
			fmt.Sprintf("Brief for project %s", id),
			[]mcpmcp.PromptMessage{
				mcpmcp.NewPromptMessage(
					mcpmcp.RoleUser,
					mcpmcp.TextContent{
						Type: "text",
						Text: "Current record of the construction project:\n" + string(data),
					},
				),
			},
		), nil
	}
}
