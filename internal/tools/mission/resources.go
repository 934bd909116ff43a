package mission

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

const (
	instructionsURI  = "mission://instructions"
	boardURI         = "mission://board"
	agentURIPrefix   = "mission://agents/"
	agentURITemplate = agentURIPrefix + "{agent_id}"
)

// registerResources adds the read-only MCP resources: the workflow
// instructions, a board summary and a per-agent briefing template.
func registerResources(s *server.MCPServer, svc *app.MissionService, logger *log.Logger) {
	s.AddResource(
		mcp.NewResource(instructionsURI, "Mission control instructions",
			mcp.WithResourceDescription("How agents use the task board, threads, notifications and standups."),
			mcp.WithMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return markdown(req.Params.URI, InstructionsText()), nil
		},
	)

	s.AddResource(
		mcp.NewResource(boardURI, "Task board",
			mcp.WithResourceDescription("Task counts per status and the open tasks on the board."),
			mcp.WithMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			logger.Println("Resource read: board")
			tasks, err := svc.ListTasks(app.TaskFilter{})
			if err != nil {
				return nil, err
			}
			return markdown(req.Params.URI, boardSummary(tasks)), nil
		},
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(agentURITemplate, "Agent briefing",
			mcp.WithTemplateDescription("An agent's profile, open assignments, unread notifications and subscribed threads. Read at session start."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			agentID := strings.TrimPrefix(req.Params.URI, agentURIPrefix)
			logger.Printf("Resource read: agents/%s", agentID)
			text, err := agentBriefing(svc, agentID)
			if err != nil {
				return nil, err
			}
			return markdown(req.Params.URI, text), nil
		},
	)
}

func markdown(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "text/markdown", Text: text},
	}
}

func boardSummary(tasks []domain.Task) string {
	counts := make(map[domain.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	var b strings.Builder
	b.WriteString("# Task board\n\n")
	for _, st := range domain.TaskStatuses {
		fmt.Fprintf(&b, "- %s: %d\n", st, counts[st])
	}
	open := 0
	for _, t := range tasks {
		if t.Status == domain.StatusDone {
			continue
		}
		if open == 0 {
			b.WriteString("\n## Open tasks\n\n")
		}
		open++
		assignee := t.AssignedTo
		if assignee == "" {
			assignee = "unassigned"
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %s, %s)\n", t.ID, t.Title, t.Status, t.Priority, assignee)
	}
	return b.String()
}

func agentBriefing(svc *app.MissionService, agentID string) (string, error) {
	agent, err := svc.GetAgent(agentID)
	if err != nil {
		return "", err
	}
	tasks, err := svc.ListTasks(app.TaskFilter{AssignedTo: agentID})
	if err != nil {
		return "", err
	}
	pending, err := svc.NotificationsForAgent(agentID)
	if err != nil {
		return "", err
	}
	subs, err := svc.SubscriptionsOf(agentID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s (%s)\n\n", agent.Emoji, agent.Name, agent.AgentID)
	fmt.Fprintf(&b, "Role: %s, level %s, status %s\n", agent.Role, agent.Level, agent.Status)
	if agent.CurrentTaskID != "" {
		fmt.Fprintf(&b, "Current task: %s\n", agent.CurrentTaskID)
	}

	b.WriteString("\n## Assigned tasks\n\n")
	open := 0
	for _, t := range tasks {
		if t.Status == domain.StatusDone {
			continue
		}
		open++
		fmt.Fprintf(&b, "- [%s] %s (%s, %s)\n", t.ID, t.Title, t.Status, t.Priority)
	}
	if open == 0 {
		b.WriteString("None.\n")
	}

	fmt.Fprintf(&b, "\n## Unread notifications: %d\n", len(pending))
	for _, n := range pending {
		fmt.Fprintf(&b, "- %s\n", app.Truncate(n.Content, 120))
	}

	fmt.Fprintf(&b, "\n## Subscribed threads: %d\n", len(subs))
	for _, id := range subs {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	return b.String(), nil
}
