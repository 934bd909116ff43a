package mission

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

func registerPostStandup(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("post_standup",
			mcp.WithDescription("Post today's standup. Posting again the same day replaces the earlier lists."),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("Your agent ID")),
			mcp.WithArray("completed", mcp.Description("What you finished"), mcp.WithStringItems()),
			mcp.WithArray("planned", mcp.Description("What you plan next"), mcp.WithStringItems()),
			mcp.WithArray("blockers", mcp.Description("What is blocking you"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			agentID, err := requireString(args, "agent_id")
			if err != nil {
				return nil, err
			}
			completed, _ := stringSlice(args, "completed")
			planned, _ := stringSlice(args, "planned")
			blockers, _ := stringSlice(args, "blockers")
			id, created, err := svc.CreateStandup(app.StandupInput{
				AgentID:   agentID,
				Completed: completed,
				Planned:   planned,
				Blockers:  blockers,
			})
			if err != nil {
				return nil, err
			}
			verb := "updated"
			if created {
				verb = "posted"
			}
			logger.Printf("Standup %s %s by %s", id, verb, agentID)
			return mcp.NewToolResultText(fmt.Sprintf("Standup %s %s (%d completed, %d planned, %d blockers)",
				id, verb, len(completed), len(planned), len(blockers))), nil
		},
	)
}

func registerMyNotifications(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("my_notifications",
			mcp.WithDescription("List your undelivered notifications, newest first. Set mark_read to mark them all delivered."),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("Your agent ID")),
			mcp.WithBoolean("mark_read", mcp.Description("Mark the returned notifications delivered (default false)")),
			mcp.WithBoolean("include_delivered", mcp.Description("Include already delivered notifications (default false)")),
			mcp.WithNumber("limit", mcp.Description("Maximum number to return when include_delivered is set (default 20)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			agentID, err := requireString(args, "agent_id")
			if err != nil {
				return nil, err
			}
			includeDelivered, _ := args["include_delivered"].(bool)
			markRead, _ := args["mark_read"].(bool)

			notifications, err := svc.NotificationsForAgent(agentID)
			if includeDelivered {
				notifications, err = svc.AllNotificationsForAgent(agentID, int(optionalFloat64(args, "limit", 20)))
			}
			if err != nil {
				return nil, err
			}
			if markRead {
				n, err := svc.MarkAllDeliveredForAgent(agentID)
				if err != nil {
					return nil, err
				}
				logger.Printf("%s marked %d notification(s) read", agentID, n)
			}
			if len(notifications) == 0 {
				return mcp.NewToolResultText("No notifications."), nil
			}
			return jsonResult(notifications)
		},
	)
}

func registerHeartbeat(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("heartbeat",
			mcp.WithDescription("Signal liveness. Marks you active; agents silent past the presence TTL are marked offline. Optionally set your current task."),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("Your agent ID")),
			mcp.WithString("current_task_id", mcp.Description("Task you are working on")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			agentID, err := requireString(args, "agent_id")
			if err != nil {
				return nil, err
			}
			if err := svc.Heartbeat(agentID); err != nil {
				return nil, err
			}
			if taskID, ok := args["current_task_id"].(string); ok {
				if err := svc.SetCurrentTask(agentID, taskID); err != nil {
					return nil, err
				}
			}
			pending, err := svc.NotificationsForAgent(agentID)
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(fmt.Sprintf("Heartbeat recorded for %s (%d pending notification(s))", agentID, len(pending))), nil
		},
	)
}

func registerListAgents(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("list_agents",
			mcp.WithDescription("List the agent roster with status, level and last heartbeat."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			agents, err := svc.ListAgents()
			if err != nil {
				return nil, err
			}
			if len(agents) == 0 {
				return mcp.NewToolResultText("No agents registered. Run `missioncontrol agents init`."), nil
			}
			return jsonResult(agents)
		},
	)
}
