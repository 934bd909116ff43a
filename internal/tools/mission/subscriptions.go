package mission

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

func registerSubscribe(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("subscribe",
			mcp.WithDescription("Follow a task thread to be notified of new comments."),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("Your agent ID")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			agentID, err := requireString(args, "agent_id")
			if err != nil {
				return nil, err
			}
			taskID, err := requireString(args, "task_id")
			if err != nil {
				return nil, err
			}
			already, err := svc.Subscribe(agentID, taskID)
			if err != nil {
				return nil, err
			}
			if already {
				return mcp.NewToolResultText(fmt.Sprintf("%s is already subscribed to task %s", agentID, taskID)), nil
			}
			logger.Printf("%s subscribed to task %s", agentID, taskID)
			return mcp.NewToolResultText(fmt.Sprintf("%s subscribed to task %s", agentID, taskID)), nil
		},
	)
}

func registerUnsubscribe(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("unsubscribe",
			mcp.WithDescription("Stop following a task thread."),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("Your agent ID")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			agentID, err := requireString(args, "agent_id")
			if err != nil {
				return nil, err
			}
			taskID, err := requireString(args, "task_id")
			if err != nil {
				return nil, err
			}
			if err := svc.Unsubscribe(agentID, taskID); err != nil {
				if errors.Is(err, app.ErrNotSubscribed) {
					return mcp.NewToolResultText(fmt.Sprintf("%s was not subscribed to task %s", agentID, taskID)), nil
				}
				return nil, err
			}
			logger.Printf("%s unsubscribed from task %s", agentID, taskID)
			return mcp.NewToolResultText(fmt.Sprintf("%s unsubscribed from task %s", agentID, taskID)), nil
		},
	)
}
