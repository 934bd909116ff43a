// Package domain holds mission control entities and aggregate state.
// It has no dependencies on other packages.
package domain

import "time"

// TaskStatus is the workflow position of a task.
type TaskStatus string

const (
	StatusInbox      TaskStatus = "inbox"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusWaiting    TaskStatus = "waiting"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// TaskStatuses lists every status in board order.
var TaskStatuses = []TaskStatus{
	StatusInbox, StatusAssigned, StatusInProgress, StatusBlocked, StatusWaiting, StatusReview, StatusDone,
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskType classifies a task.
type TaskType string

const (
	TypeTask     TaskType = "task"
	TypeBug      TaskType = "bug"
	TypeFeature  TaskType = "feature"
	TypeResearch TaskType = "research"
)

func (t TaskType) Valid() bool {
	switch t {
	case TypeTask, TypeBug, TypeFeature, TypeResearch:
		return true
	}
	return false
}

// DocumentType classifies a document.
type DocumentType string

const (
	DocReport      DocumentType = "report"
	DocCode        DocumentType = "code"
	DocDesign      DocumentType = "design"
	DocNotes       DocumentType = "notes"
	DocOther       DocumentType = "other"
	DocDeliverable DocumentType = "deliverable"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocReport, DocCode, DocDesign, DocNotes, DocOther, DocDeliverable:
		return true
	}
	return false
}

// AgentStatus is an agent's availability.
type AgentStatus string

const (
	AgentActive  AgentStatus = "active"
	AgentIdle    AgentStatus = "idle"
	AgentBlocked AgentStatus = "blocked"
	AgentOffline AgentStatus = "offline"
)

func (s AgentStatus) Valid() bool {
	switch s {
	case AgentActive, AgentIdle, AgentBlocked, AgentOffline:
		return true
	}
	return false
}

// AgentLevel is an agent's seniority on the roster.
type AgentLevel string

const (
	LevelLead       AgentLevel = "LEAD"
	LevelSpecialist AgentLevel = "SPC"
	LevelIntern     AgentLevel = "INT"
	LevelWorking    AgentLevel = "WORKING"
)

func (l AgentLevel) Valid() bool {
	switch l {
	case LevelLead, LevelSpecialist, LevelIntern, LevelWorking:
		return true
	}
	return false
}

// TargetType is the kind of entity an activity refers to.
type TargetType string

const (
	TargetTask     TargetType = "task"
	TargetMessage  TargetType = "message"
	TargetDocument TargetType = "document"
	TargetAgent    TargetType = "agent"
)

// Agent is a worker on the roster.
type Agent struct {
	AgentID       string      `json:"agent_id"`
	Name          string      `json:"name"`
	Emoji         string      `json:"emoji"`
	Role          string      `json:"role"`
	Status        AgentStatus `json:"status"`
	Level         AgentLevel  `json:"level"`
	LastHeartbeat time.Time   `json:"last_heartbeat"`
	CurrentTaskID string      `json:"current_task_id,omitempty"`
}

// Task is a unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	CreatedBy   string     `json:"created_by"`
	Priority    Priority   `json:"priority"`
	Type        TaskType   `json:"type"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Attachment is a link carried by a message.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Message is a comment on a task thread. Immutable once created.
type Message struct {
	ID          string       `json:"id"`
	TaskID      string       `json:"task_id"`
	FromAgentID string       `json:"from_agent_id"`
	Content     string       `json:"content"`
	Mentions    []string     `json:"mentions"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Document is an artifact produced by an agent.
// SourcePath, when set, is its dedup identity; otherwise ContentHash is.
type Document struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Type        DocumentType `json:"type"`
	TaskID      string       `json:"task_id,omitempty"`
	AgentID     string       `json:"agent_id"`
	SourcePath  string       `json:"source_path,omitempty"`
	ContentHash string       `json:"content_hash,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Notification is a message queued for delivery to one agent.
// Delivered only ever moves from false to true.
type Notification struct {
	ID               string    `json:"id"`
	MentionedAgentID string    `json:"mentioned_agent_id"`
	Content          string    `json:"content"`
	SourceAgentID    string    `json:"source_agent_id"`
	TaskID           string    `json:"task_id,omitempty"`
	MessageID        string    `json:"message_id,omitempty"`
	Delivered        bool      `json:"delivered"`
	CreatedAt        time.Time `json:"created_at"`
}

// Subscription marks an agent as watching a task thread.
type Subscription struct {
	AgentID   string    `json:"agent_id"`
	TaskID    string    `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is an append-only audit record.
type Activity struct {
	ID         string     `json:"id"`
	AgentID    string     `json:"agent_id"`
	Action     string     `json:"action"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Message    string     `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Standup is an agent's daily report. Unique per (Date, AgentID).
type Standup struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD, UTC
	AgentID   string    `json:"agent_id"`
	Completed []string  `json:"completed"`
	Planned   []string  `json:"planned"`
	Blockers  []string  `json:"blockers"`
	CreatedAt time.Time `json:"created_at"`
}

// MissionState is the aggregate mission control state.
// Slices are kept in insertion order.
type MissionState struct {
	Agents        map[string]*Agent `json:"agents"`
	Tasks         []Task            `json:"tasks"`
	Messages      []Message         `json:"messages"`
	Documents     []Document        `json:"documents"`
	Notifications []Notification    `json:"notifications"`
	Subscriptions []Subscription    `json:"subscriptions"`
	Activities    []Activity        `json:"activities"`
	Standups      []Standup         `json:"standups"`
}

// NewMissionState returns an empty MissionState with all collections initialized.
func NewMissionState() *MissionState {
	return &MissionState{
		Agents:        make(map[string]*Agent),
		Tasks:         []Task{},
		Messages:      []Message{},
		Documents:     []Document{},
		Notifications: []Notification{},
		Subscriptions: []Subscription{},
		Activities:    []Activity{},
		Standups:      []Standup{},
	}
}

// FindTask returns a pointer into s.Tasks, or nil.
func (s *MissionState) FindTask(id string) *Task {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i]
		}
	}
	return nil
}

// FindDocument returns a pointer into s.Documents, or nil.
func (s *MissionState) FindDocument(id string) *Document {
	for i := range s.Documents {
		if s.Documents[i].ID == id {
			return &s.Documents[i]
		}
	}
	return nil
}

// FindNotification returns a pointer into s.Notifications, or nil.
func (s *MissionState) FindNotification(id string) *Notification {
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			return &s.Notifications[i]
		}
	}
	return nil
}
