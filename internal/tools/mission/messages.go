package mission

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

func registerPostMessage(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("post_message",
			mcp.WithDescription("Comment on a task thread. @handles in the content notify those agents; other subscribers get a generic notification."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithString("from_agent_id", mcp.Required(), mcp.Description("Your agent ID")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Comment text (supports @mentions)")),
			mcp.WithArray("attachments", mcp.Description("Attachments: objects with name, url and type")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			taskID, err := requireString(args, "task_id")
			if err != nil {
				return nil, err
			}
			from, err := requireString(args, "from_agent_id")
			if err != nil {
				return nil, err
			}
			content, err := requireString(args, "content")
			if err != nil {
				return nil, err
			}
			var attachments []domain.Attachment
			if raw, ok := args["attachments"].([]interface{}); ok {
				for _, x := range raw {
					m, ok := x.(map[string]any)
					if !ok {
						continue
					}
					attachments = append(attachments, domain.Attachment{
						Name: optionalString(m, "name"),
						URL:  optionalString(m, "url"),
						Type: optionalString(m, "type"),
					})
				}
			}
			id, err := svc.CreateMessage(app.CreateMessageInput{
				TaskID:      taskID,
				FromAgentID: from,
				Content:     content,
				Attachments: attachments,
			})
			if err != nil {
				return nil, err
			}
			mentions := app.ExtractMentions(content)
			logger.Printf("Message %s on task %s from %s (%d mention(s))", id, taskID, from, len(mentions))
			return mcp.NewToolResultText(fmt.Sprintf("Message %s posted to task %s (mentions: %d)", id, taskID, len(mentions))), nil
		},
	)
}

func registerReadThread(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("read_thread",
			mcp.WithDescription("Read a task and its comment thread, oldest comment first."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := requireString(req.GetArguments(), "task_id")
			if err != nil {
				return nil, err
			}
			task, err := svc.GetTask(taskID)
			if err != nil {
				return nil, err
			}
			messages, err := svc.ListMessagesByTask(taskID)
			if err != nil {
				return nil, err
			}
			subscribers, err := svc.SubscribersOf(taskID)
			if err != nil {
				return nil, err
			}
			return jsonResult(map[string]any{
				"task":        task,
				"messages":    messages,
				"subscribers": subscribers,
			})
		},
	)
}
