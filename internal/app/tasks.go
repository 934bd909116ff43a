package app

import (
	"context"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/otel"
)

// CreateTaskInput describes a new task. Priority and Type default to medium and task.
type CreateTaskInput struct {
	Title       string
	Description string
	CreatedBy   string
	AssignedTo  string
	Priority    domain.Priority
	Type        domain.TaskType
	Tags        []string
	DueDate     *time.Time
}

func (in *CreateTaskInput) validate() error {
	if in.Title == "" {
		return required("title")
	}
	if in.CreatedBy == "" {
		return required("created_by")
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	} else if !in.Priority.Valid() {
		return invalid("priority", string(in.Priority), "must be low, medium, high or urgent")
	}
	if in.Type == "" {
		in.Type = domain.TypeTask
	} else if !in.Type.Valid() {
		return invalid("type", string(in.Type), "must be task, bug, feature or research")
	}
	in.Tags = nonNil(in.Tags)
	return nil
}

// CreateTask inserts a task and returns its id. The creator is always subscribed.
// When AssignedTo is set the task starts as assigned; if the assignee differs from
// the creator they are subscribed too and get an assignment notification.
func (s *MissionService) CreateTask(in CreateTaskInput) (string, error) {
	if err := in.validate(); err != nil {
		otel.RecordTaskOp(context.Background(), "create", outcome(err))
		return "", err
	}
	var id string
	notified := 0
	err := s.Run(func(state *domain.MissionState) error {
		now := s.now()
		id = s.newID()
		status := domain.StatusInbox
		if in.AssignedTo != "" {
			status = domain.StatusAssigned
		}
		state.Tasks = append(state.Tasks, domain.Task{
			ID:          id,
			Title:       in.Title,
			Description: in.Description,
			Status:      status,
			AssignedTo:  in.AssignedTo,
			CreatedBy:   in.CreatedBy,
			Priority:    in.Priority,
			Type:        in.Type,
			Tags:        in.Tags,
			DueDate:     in.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		})

		subscribe(state, in.CreatedBy, id, now)
		if in.AssignedTo != "" && in.AssignedTo != in.CreatedBy {
			subscribe(state, in.AssignedTo, id, now)
			s.notify(state, domain.Notification{
				MentionedAgentID: in.AssignedTo,
				SourceAgentID:    in.CreatedBy,
				Content:          assignmentText(in.Title),
				TaskID:           id,
			}, now)
			notified++
		}
		s.record(state, in.CreatedBy, "created", domain.TargetTask, id, "Created task: "+in.Title, now)
		return nil
	})
	ctx := context.Background()
	otel.RecordTaskOp(ctx, "create", outcome(err))
	if err != nil {
		return "", err
	}
	otel.RecordNotifications(ctx, kindAssignment, notified)
	return id, nil
}

// AssignTask assigns taskID to assignedTo and forces its status to assigned.
// The assignee is subscribed (idempotently) and always receives an assignment
// notification, even when assigning to themselves.
func (s *MissionService) AssignTask(taskID, assignedTo, assignedBy string) error {
	if taskID == "" {
		return required("task_id")
	}
	if assignedTo == "" {
		return required("assigned_to")
	}
	if assignedBy == "" {
		return required("assigned_by")
	}
	err := s.Run(func(state *domain.MissionState) error {
		task := state.FindTask(taskID)
		if task == nil {
			return notFound("task", taskID)
		}
		now := s.now()
		task.AssignedTo = assignedTo
		task.Status = domain.StatusAssigned
		task.UpdatedAt = now

		subscribe(state, assignedTo, taskID, now)
		s.notify(state, domain.Notification{
			MentionedAgentID: assignedTo,
			SourceAgentID:    assignedBy,
			Content:          assignmentText(task.Title),
			TaskID:           taskID,
		}, now)
		s.record(state, assignedBy, "assigned", domain.TargetTask, taskID, "Assigned "+task.Title+" to @"+assignedTo, now)
		return nil
	})
	ctx := context.Background()
	otel.RecordTaskOp(ctx, "assign", outcome(err))
	if err == nil {
		otel.RecordNotifications(ctx, kindAssignment, 1)
	}
	return err
}

// UpdateTaskStatus moves taskID to status. Every transition between the seven
// statuses is allowed, including to the current status. One activity is
// appended per call.
func (s *MissionService) UpdateTaskStatus(taskID string, status domain.TaskStatus, agentID string) error {
	if taskID == "" {
		return required("task_id")
	}
	if !status.Valid() {
		err := invalid("status", string(status), "unknown task status")
		otel.RecordTaskOp(context.Background(), "status", outcome(err))
		return err
	}
	err := s.Run(func(state *domain.MissionState) error {
		task := state.FindTask(taskID)
		if task == nil {
			return notFound("task", taskID)
		}
		now := s.now()
		task.Status = status
		task.UpdatedAt = now
		s.record(state, agentID, "status_changed", domain.TargetTask, taskID, "Changed status to "+string(status)+": "+task.Title, now)
		return nil
	})
	otel.RecordTaskOp(context.Background(), "status", outcome(err))
	return err
}

// TaskPatch holds optional field updates. Nil fields are left unchanged;
// a non-nil empty Tags slice clears the tags.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
	Tags        []string
	DueDate     *time.Time
}

// UpdateTask applies patch to taskID and bumps UpdatedAt. No activity is recorded.
func (s *MissionService) UpdateTask(taskID string, patch TaskPatch) error {
	if taskID == "" {
		return required("task_id")
	}
	if patch.Title != nil && *patch.Title == "" {
		return invalid("title", "", "cannot be empty")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return invalid("priority", string(*patch.Priority), "must be low, medium, high or urgent")
	}
	err := s.Run(func(state *domain.MissionState) error {
		task := state.FindTask(taskID)
		if task == nil {
			return notFound("task", taskID)
		}
		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Priority != nil {
			task.Priority = *patch.Priority
		}
		if patch.Tags != nil {
			task.Tags = patch.Tags
		}
		if patch.DueDate != nil {
			due := *patch.DueDate
			task.DueDate = &due
		}
		task.UpdatedAt = s.now()
		return nil
	})
	otel.RecordTaskOp(context.Background(), "update", outcome(err))
	return err
}

// TaskFilter narrows ListTasks. Empty fields match everything.
type TaskFilter struct {
	Status     domain.TaskStatus
	AssignedTo string
}

// ListTasks returns matching tasks, newest first.
func (s *MissionService) ListTasks(filter TaskFilter) ([]domain.Task, error) {
	out := []domain.Task{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, t := range state.Tasks {
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	newestFirst(out, func(t domain.Task) time.Time { return t.CreatedAt })
	return out, err
}

// GetTask returns one task or ErrNotFound.
func (s *MissionService) GetTask(taskID string) (domain.Task, error) {
	var task domain.Task
	err := s.Query(func(state *domain.MissionState) error {
		t := state.FindTask(taskID)
		if t == nil {
			return notFound("task", taskID)
		}
		task = *t
		return nil
	})
	return task, err
}
