package mission

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

var statusEnum = []string{"inbox", "assigned", "in_progress", "blocked", "waiting", "review", "done"}

func registerCreateTask(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("create_task",
			mcp.WithDescription("Create a task on the mission board. The creator is subscribed to its thread; an assignee is subscribed and notified."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Short task title")),
			mcp.WithString("description", mcp.Description("Detailed task description")),
			mcp.WithString("created_by", mcp.Required(), mcp.Description("Agent ID of the creator")),
			mcp.WithString("assigned_to", mcp.Description("Agent ID to assign; leaves the task in the inbox when empty")),
			mcp.WithString("priority", mcp.Description("Task priority (default: medium)"), mcp.Enum("low", "medium", "high", "urgent")),
			mcp.WithString("type", mcp.Description("Task type (default: task)"), mcp.Enum("task", "bug", "feature", "research")),
			mcp.WithArray("tags", mcp.Description("Free-form tags"), mcp.WithStringItems()),
			mcp.WithString("due_date", mcp.Description("Due date, RFC3339 or YYYY-MM-DD")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			title, err := requireString(args, "title")
			if err != nil {
				return nil, err
			}
			createdBy, err := requireString(args, "created_by")
			if err != nil {
				return nil, err
			}
			due, err := optionalDate(args, "due_date")
			if err != nil {
				return nil, err
			}
			tags, _ := stringSlice(args, "tags")
			in := app.CreateTaskInput{
				Title:       title,
				Description: optionalString(args, "description"),
				CreatedBy:   createdBy,
				AssignedTo:  optionalString(args, "assigned_to"),
				Priority:    domain.Priority(optionalString(args, "priority")),
				Type:        domain.TaskType(optionalString(args, "type")),
				Tags:        tags,
				DueDate:     due,
			}
			id, err := svc.CreateTask(in)
			if err != nil {
				return nil, err
			}
			task, err := svc.GetTask(id)
			if err != nil {
				return nil, err
			}
			logger.Printf("Task %s created by %s (priority: %s)", id, createdBy, task.Priority)
			assignee := task.AssignedTo
			if assignee == "" {
				assignee = "inbox"
			}
			return mcp.NewToolResultText(fmt.Sprintf("Task %s created: %s (assigned to: %s, priority: %s)",
				id, title, assignee, task.Priority)), nil
		},
	)
}

func registerAssignTask(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("assign_task",
			mcp.WithDescription("Assign a task to an agent. Sets status to assigned and notifies the assignee."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithString("assigned_to", mcp.Required(), mcp.Description("Agent ID of the new assignee")),
			mcp.WithString("assigned_by", mcp.Required(), mcp.Description("Agent ID making the assignment")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			taskID, err := requireString(args, "task_id")
			if err != nil {
				return nil, err
			}
			assignedTo, err := requireString(args, "assigned_to")
			if err != nil {
				return nil, err
			}
			assignedBy, err := requireString(args, "assigned_by")
			if err != nil {
				return nil, err
			}
			if err := svc.AssignTask(taskID, assignedTo, assignedBy); err != nil {
				return nil, err
			}
			logger.Printf("Task %s assigned to %s by %s", taskID, assignedTo, assignedBy)
			return mcp.NewToolResultText(fmt.Sprintf("Task %s assigned to @%s", taskID, assignedTo)), nil
		},
	)
}

func registerUpdateTaskStatus(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("update_task_status",
			mcp.WithDescription("Move a task to another status. Any status may follow any other."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithString("status", mcp.Required(), mcp.Description("New status"), mcp.Enum(statusEnum...)),
			mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent ID making the change")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			taskID, err := requireString(args, "task_id")
			if err != nil {
				return nil, err
			}
			status, err := requireString(args, "status")
			if err != nil {
				return nil, err
			}
			agentID, err := requireString(args, "agent_id")
			if err != nil {
				return nil, err
			}
			if err := svc.UpdateTaskStatus(taskID, domain.TaskStatus(status), agentID); err != nil {
				return nil, err
			}
			logger.Printf("Task %s -> %s by %s", taskID, status, agentID)
			return mcp.NewToolResultText(fmt.Sprintf("Task %s status: %s", taskID, status)), nil
		},
	)
}

func registerUpdateTask(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("update_task",
			mcp.WithDescription("Edit task fields. Only the fields given are changed."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("priority", mcp.Description("New priority"), mcp.Enum("low", "medium", "high", "urgent")),
			mcp.WithArray("tags", mcp.Description("Replacement tag list"), mcp.WithStringItems()),
			mcp.WithString("due_date", mcp.Description("Due date, RFC3339 or YYYY-MM-DD")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			taskID, err := requireString(args, "task_id")
			if err != nil {
				return nil, err
			}
			var patch app.TaskPatch
			if v, ok := args["title"].(string); ok {
				patch.Title = &v
			}
			if v, ok := args["description"].(string); ok {
				patch.Description = &v
			}
			if v, ok := args["priority"].(string); ok {
				p := domain.Priority(v)
				patch.Priority = &p
			}
			if tags, ok := stringSlice(args, "tags"); ok {
				patch.Tags = tags
			}
			if patch.DueDate, err = optionalDate(args, "due_date"); err != nil {
				return nil, err
			}
			if err := svc.UpdateTask(taskID, patch); err != nil {
				return nil, err
			}
			logger.Printf("Task %s updated", taskID)
			return mcp.NewToolResultText(fmt.Sprintf("Task %s updated", taskID)), nil
		},
	)
}

func registerListTasks(r *registrar, svc *app.MissionService, logger *log.Logger) {
	r.add(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List tasks on the mission board, newest first."),
			mcp.WithString("status", mcp.Description("Filter by status"), mcp.Enum(statusEnum...)),
			mcp.WithString("assigned_to", mcp.Description("Filter by assignee")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			tasks, err := svc.ListTasks(app.TaskFilter{
				Status:     domain.TaskStatus(optionalString(args, "status")),
				AssignedTo: optionalString(args, "assigned_to"),
			})
			if err != nil {
				return nil, err
			}
			if len(tasks) == 0 {
				return mcp.NewToolResultText("No tasks found."), nil
			}
			return jsonResult(tasks)
		},
	)
}
