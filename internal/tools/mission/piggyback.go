package mission

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

// suppressBannerTools already show notification state, or carry no caller identity.
var suppressBannerTools = map[string]struct{}{
	"my_notifications": {},
	"heartbeat":        {},
	"list_agents":      {},
	"search":           {},
}

// NotificationBanner returns a ToolHandlerMiddleware that appends a reminder to
// successful tool results when the calling agent has undelivered notifications.
// The caller is taken from the agent_id or from_agent_id argument.
func NotificationBanner(svc *app.MissionService) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := next(ctx, req)
			if err != nil || result == nil || result.IsError {
				return result, err
			}
			if _, suppress := suppressBannerTools[req.Params.Name]; suppress {
				return result, nil
			}
			agent := callerAgent(req.GetArguments())
			if agent == "" {
				return result, nil
			}
			if banner := buildBanner(svc, agent); banner != "" {
				appendBannerToResult(result, banner)
			}
			return result, nil
		}
	}
}

func callerAgent(args map[string]any) string {
	for _, key := range []string{"agent_id", "from_agent_id"} {
		if v := optionalString(args, key); v != "" {
			return v
		}
	}
	return ""
}

// buildBanner returns "" when agent has nothing pending.
func buildBanner(svc *app.MissionService, agent string) string {
	pending, err := svc.NotificationsForAgent(agent)
	if err != nil || len(pending) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n---\nYou have %d unread notification(s). Call my_notifications to see them.", len(pending))
}

// appendBannerToResult appends text to the last text content block, or adds a new one.
func appendBannerToResult(result *mcp.CallToolResult, banner string) {
	for i := len(result.Content) - 1; i >= 0; i-- {
		if tc, ok := result.Content[i].(mcp.TextContent); ok {
			result.Content[i] = mcp.TextContent{
				Annotated: tc.Annotated,
				Type:      "text",
				Text:      tc.Text + banner,
			}
			return
		}
	}
	result.Content = append(result.Content, mcp.TextContent{
		Type: "text",
		Text: banner,
	})
}
