package mission

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

func registerCreateDocument(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("create_document",
			mcp.WithDescription("Store a deliverable. A document with the same source_path is updated in place; otherwise one with the same content_hash is reused unchanged."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
			mcp.WithString("content", mcp.Description("Document body (markdown)")),
			mcp.WithString("type", mcp.Required(), mcp.Description("Document type"), mcp.Enum("report", "code", "design", "notes", "other", "deliverable")),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("Author agent ID")),
			mcp.WithString("task_id", mcp.Description("Related task ID")),
			mcp.WithString("source_path", mcp.Description("File path the document was synced from")),
			mcp.WithString("content_hash", mcp.Description("Hash of the content, for dedup")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			title, err := requireString(args, "title")
			if err != nil {
				return nil, err
			}
			docType, err := requireString(args, "type")
			if err != nil {
				return nil, err
			}
			agentID, err := requireString(args, "agent_id")
			if err != nil {
				return nil, err
			}
			id, outcome, err := svc.CreateOrUpdateDocument(app.DocumentInput{
				Title:       title,
				Content:     optionalString(args, "content"),
				Type:        domain.DocumentType(docType),
				AgentID:     agentID,
				TaskID:      optionalString(args, "task_id"),
				SourcePath:  optionalString(args, "source_path"),
				ContentHash: optionalString(args, "content_hash"),
			})
			if err != nil {
				return nil, err
			}
			logger.Printf("Document %s %s by %s", id, outcome, agentID)
			return mcp.NewToolResultText(fmt.Sprintf("Document %s %s: %s", id, outcome, title)), nil
		},
	)
}
