package mission

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// ========== create_task tests ==========

func TestCreateTask_Basic(t *testing.T) {
	svc, repo := newTestService(t)
	srv := testServer(svc)

	text := mustCall(t, srv, "create_task", map[string]any{
		"title":       "Audit landing page",
		"description": "Check copy and CTAs",
		"created_by":  "marketing_lead",
		"assigned_to": "site_researcher",
		"priority":    "high",
		"tags":        []any{"web", "q2"},
		"due_date":    "2026-04-01",
	})
	if !strings.Contains(text, "created: Audit landing page (assigned to: site_researcher, priority: high)") {
		t.Errorf("unexpected result: %s", text)
	}

	if len(repo.state.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(repo.state.Tasks))
	}
	task := repo.state.Tasks[0]
	if task.Status != domain.StatusAssigned || task.Type != domain.TypeTask {
		t.Errorf("status/type = %s/%s", task.Status, task.Type)
	}
	if len(task.Tags) != 2 || task.Tags[1] != "q2" {
		t.Errorf("tags = %v", task.Tags)
	}
	if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2026-04-01" {
		t.Errorf("due = %v", task.DueDate)
	}
	if len(repo.state.Notifications) != 1 || repo.state.Notifications[0].Content != "You've been assigned task: Audit landing page" {
		t.Errorf("notifications = %+v", repo.state.Notifications)
	}
}

func TestCreateTask_InboxDefaults(t *testing.T) {
	svc, repo := newTestService(t)
	srv := testServer(svc)
	text := mustCall(t, srv, "create_task", map[string]any{"title": "Idea", "created_by": "ops_autopost"})
	if !strings.Contains(text, "assigned to: inbox, priority: medium") {
		t.Errorf("unexpected result: %s", text)
	}
	if repo.state.Tasks[0].Status != domain.StatusInbox {
		t.Errorf("status = %s", repo.state.Tasks[0].Status)
	}
}

func TestCreateTask_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing title", map[string]any{"created_by": "a"}},
		{"missing creator", map[string]any{"title": "x"}},
		{"bad priority", map[string]any{"title": "x", "created_by": "a", "priority": "whenever"}},
		{"bad due date", map[string]any{"title": "x", "created_by": "a", "due_date": "next week"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			srv := testServer(svc)
			_, err := callTool(t, srv, "create_task", tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if repo.state != nil && len(repo.state.Tasks) != 0 {
				t.Error("no task should be stored")
			}
		})
	}
}

func TestAssignAndStatus(t *testing.T) {
	svc, repo := newTestService(t)
	srv := testServer(svc)
	mustCall(t, srv, "create_task", map[string]any{"title": "T", "created_by": "marketing_lead"})
	id := repo.state.Tasks[0].ID

	text := mustCall(t, srv, "assign_task", map[string]any{"task_id": id, "assigned_to": "content_seo", "assigned_by": "marketing_lead"})
	if text != "Task "+id+" assigned to @content_seo" {
		t.Errorf("assign result = %q", text)
	}
	mustCall(t, srv, "update_task_status", map[string]any{"task_id": id, "status": "review", "agent_id": "content_seo"})
	if repo.state.Tasks[0].Status != domain.StatusReview {
		t.Errorf("status = %s", repo.state.Tasks[0].Status)
	}

	if _, err := callTool(t, srv, "update_task_status", map[string]any{"task_id": id, "status": "archived", "agent_id": "x"}); err == nil {
		t.Error("invalid status should fail")
	}
	if _, err := callTool(t, srv, "assign_task", map[string]any{"task_id": "nope", "assigned_to": "a", "assigned_by": "b"}); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unknown task err = %v", err)
	}
}

func TestUpdateTask_PartialPatch(t *testing.T) {
	svc, repo := newTestService(t)
	srv := testServer(svc)
	mustCall(t, srv, "create_task", map[string]any{"title": "T", "description": "keep", "created_by": "a", "tags": []any{"x"}})
	id := repo.state.Tasks[0].ID

	mustCall(t, srv, "update_task", map[string]any{"task_id": id, "title": "T2", "priority": "urgent"})
	task := repo.state.Tasks[0]
	if task.Title != "T2" || task.Description != "keep" || task.Priority != domain.PriorityUrgent || len(task.Tags) != 1 {
		t.Errorf("task = %+v", task)
	}
	mustCall(t, srv, "update_task", map[string]any{"task_id": id, "tags": []any{}})
	if len(repo.state.Tasks[0].Tags) != 0 {
		t.Errorf("tags = %v, want cleared", repo.state.Tasks[0].Tags)
	}
}

func TestListTasks(t *testing.T) {
	svc, _ := newTestService(t)
	srv := testServer(svc)
	if text := mustCall(t, srv, "list_tasks", map[string]any{}); text != "No tasks found." {
		t.Errorf("empty list = %q", text)
	}
	mustCall(t, srv, "create_task", map[string]any{"title": "one", "created_by": "a"})
	mustCall(t, srv, "create_task", map[string]any{"title": "two", "created_by": "a", "assigned_to": "b"})

	text := mustCall(t, srv, "list_tasks", map[string]any{"status": "assigned"})
	var tasks []domain.Task
	if err := json.Unmarshal([]byte(text), &tasks); err != nil {
		t.Fatalf("decode: %v\n%s", err, text)
	}
	if len(tasks) != 1 || tasks[0].Title != "two" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestToolFilter(t *testing.T) {
	svc, _ := newTestService(t)
	srv := testServer(svc, WithToolFilter(func(name string) bool { return name == "list_tasks" }))
	if _, err := callTool(t, srv, "list_tasks", map[string]any{}); err != nil {
		t.Errorf("enabled tool failed: %v", err)
	}
	if _, err := callTool(t, srv, "create_task", map[string]any{"title": "x", "created_by": "a"}); err == nil {
		t.Error("disabled tool should not be callable")
	}
}
