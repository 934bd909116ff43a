package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	agent_id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	emoji TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	level TEXT NOT NULL,
	last_heartbeat TEXT NOT NULL,
	current_task_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS tasks (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	assigned_to TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	priority TEXT NOT NULL,
	type TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	due_date TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	task_id TEXT NOT NULL,
	from_agent_id TEXT NOT NULL,
	content TEXT NOT NULL,
	mentions TEXT NOT NULL DEFAULT '[]',
	attachments TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	task_id TEXT NOT NULL DEFAULT '',
	agent_id TEXT NOT NULL,
	source_path TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notifications (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	mentioned_agent_id TEXT NOT NULL,
	content TEXT NOT NULL,
	source_agent_id TEXT NOT NULL DEFAULT '',
	task_id TEXT NOT NULL DEFAULT '',
	message_id TEXT NOT NULL DEFAULT '',
	delivered INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS subscriptions (
	seq INTEGER PRIMARY KEY,
	agent_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS activities (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	agent_id TEXT NOT NULL,
	action TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS standups (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	date TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	completed TEXT NOT NULL DEFAULT '[]',
	planned TEXT NOT NULL DEFAULT '[]',
	blockers TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);
`

// indexes for the lookups the service performs on every fan-out and delivery pass.
const indexes = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_agent_task ON subscriptions(agent_id, task_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_standups_date_agent ON standups(date, agent_id);
CREATE INDEX IF NOT EXISTS idx_messages_task ON messages(task_id);
CREATE INDEX IF NOT EXISTS idx_notifications_delivered ON notifications(delivered);
CREATE INDEX IF NOT EXISTS idx_notifications_agent_delivered ON notifications(mentioned_agent_id, delivered);
CREATE INDEX IF NOT EXISTS idx_documents_source_path ON documents(source_path);
CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash);
CREATE INDEX IF NOT EXISTS idx_activities_agent ON activities(agent_id);
`

// Store implements app.StateRepository using SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ app.StateRepository = (*Store)(nil)
	_ app.StateUpdater    = (*Store)(nil)
)

// New opens the SQLite database at path (creating parent dirs and schema) and returns a StateRepository.
func New(path string) (app.StateRepository, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	if _, err := db.Exec(indexes); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite indexes: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection. Call on shutdown for clean exit.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses RFC3339Nano or returns zero time and error.
func parseTime(s, context string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: parse timestamp %q: %w", context, s, err)
	}
	return t, nil
}

// parseJSON unmarshals s into v or returns error with context.
func parseJSON(s string, v interface{}, context string) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// strs keeps empty lists as [] rather than null.
func strs(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// execQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// scanAll runs query and calls scan once per row.
func scanAll(ctx context.Context, q execQuerier, table, query string, scan func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s iteration: %w", table, err)
	}
	return nil
}

// Load implements app.StateRepository.
func (s *Store) Load() (*domain.MissionState, error) {
	return load(context.Background(), s.db)
}

func load(ctx context.Context, q execQuerier) (*domain.MissionState, error) {
	state := domain.NewMissionState()

	err := scanAll(ctx, q, "agents", "SELECT agent_id, name, emoji, role, status, level, last_heartbeat, current_task_id FROM agents", func(rows *sql.Rows) error {
		var a domain.Agent
		var hb string
		if err := rows.Scan(&a.AgentID, &a.Name, &a.Emoji, &a.Role, &a.Status, &a.Level, &hb, &a.CurrentTaskID); err != nil {
			return err
		}
		t, err := parseTime(hb, "last_heartbeat")
		if err != nil {
			return err
		}
		a.LastHeartbeat = t
		state.Agents[a.AgentID] = &a
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, q, "tasks", "SELECT id, title, description, status, assigned_to, created_by, priority, type, tags, due_date, created_at, updated_at FROM tasks ORDER BY seq", func(rows *sql.Rows) error {
		var t domain.Task
		var tags, due, ca, ua string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.AssignedTo, &t.CreatedBy, &t.Priority, &t.Type, &tags, &due, &ca, &ua); err != nil {
			return err
		}
		var err error
		if t.CreatedAt, err = parseTime(ca, "created_at"); err != nil {
			return err
		}
		if t.UpdatedAt, err = parseTime(ua, "updated_at"); err != nil {
			return err
		}
		if due != "" {
			d, err := parseTime(due, "due_date")
			if err != nil {
				return err
			}
			t.DueDate = &d
		}
		if err := parseJSON(tags, &t.Tags, "tags"); err != nil {
			return err
		}
		t.Tags = strs(t.Tags)
		state.Tasks = append(state.Tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, q, "messages", "SELECT id, task_id, from_agent_id, content, mentions, attachments, created_at FROM messages ORDER BY seq", func(rows *sql.Rows) error {
		var m domain.Message
		var mentions, attachments, ca string
		if err := rows.Scan(&m.ID, &m.TaskID, &m.FromAgentID, &m.Content, &mentions, &attachments, &ca); err != nil {
			return err
		}
		var err error
		if m.CreatedAt, err = parseTime(ca, "created_at"); err != nil {
			return err
		}
		if err := parseJSON(mentions, &m.Mentions, "mentions"); err != nil {
			return err
		}
		if err := parseJSON(attachments, &m.Attachments, "attachments"); err != nil {
			return err
		}
		m.Mentions = strs(m.Mentions)
		if m.Attachments == nil {
			m.Attachments = []domain.Attachment{}
		}
		state.Messages = append(state.Messages, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, q, "documents", "SELECT id, title, content, type, task_id, agent_id, source_path, content_hash, created_at, updated_at FROM documents ORDER BY seq", func(rows *sql.Rows) error {
		var d domain.Document
		var ca, ua string
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.Type, &d.TaskID, &d.AgentID, &d.SourcePath, &d.ContentHash, &ca, &ua); err != nil {
			return err
		}
		var err error
		if d.CreatedAt, err = parseTime(ca, "created_at"); err != nil {
			return err
		}
		if d.UpdatedAt, err = parseTime(ua, "updated_at"); err != nil {
			return err
		}
		state.Documents = append(state.Documents, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, q, "notifications", "SELECT id, mentioned_agent_id, content, source_agent_id, task_id, message_id, delivered, created_at FROM notifications ORDER BY seq", func(rows *sql.Rows) error {
		var n domain.Notification
		var delivered int
		var ca string
		if err := rows.Scan(&n.ID, &n.MentionedAgentID, &n.Content, &n.SourceAgentID, &n.TaskID, &n.MessageID, &delivered, &ca); err != nil {
			return err
		}
		var err error
		if n.CreatedAt, err = parseTime(ca, "created_at"); err != nil {
			return err
		}
		n.Delivered = delivered != 0
		state.Notifications = append(state.Notifications, n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, q, "subscriptions", "SELECT agent_id, task_id, created_at FROM subscriptions ORDER BY seq", func(rows *sql.Rows) error {
		var sub domain.Subscription
		var ca string
		if err := rows.Scan(&sub.AgentID, &sub.TaskID, &ca); err != nil {
			return err
		}
		var err error
		if sub.CreatedAt, err = parseTime(ca, "created_at"); err != nil {
			return err
		}
		state.Subscriptions = append(state.Subscriptions, sub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, q, "activities", "SELECT id, agent_id, action, target_type, target_id, message, created_at FROM activities ORDER BY seq", func(rows *sql.Rows) error {
		var a domain.Activity
		var ca string
		if err := rows.Scan(&a.ID, &a.AgentID, &a.Action, &a.TargetType, &a.TargetID, &a.Message, &ca); err != nil {
			return err
		}
		var err error
		if a.CreatedAt, err = parseTime(ca, "created_at"); err != nil {
			return err
		}
		state.Activities = append(state.Activities, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanAll(ctx, q, "standups", "SELECT id, date, agent_id, completed, planned, blockers, created_at FROM standups ORDER BY seq", func(rows *sql.Rows) error {
		var st domain.Standup
		var completed, planned, blockers, ca string
		if err := rows.Scan(&st.ID, &st.Date, &st.AgentID, &completed, &planned, &blockers, &ca); err != nil {
			return err
		}
		var err error
		if st.CreatedAt, err = parseTime(ca, "created_at"); err != nil {
			return err
		}
		if err := parseJSON(completed, &st.Completed, "completed"); err != nil {
			return err
		}
		if err := parseJSON(planned, &st.Planned, "planned"); err != nil {
			return err
		}
		if err := parseJSON(blockers, &st.Blockers, "blockers"); err != nil {
			return err
		}
		st.Completed, st.Planned, st.Blockers = strs(st.Completed), strs(st.Planned), strs(st.Blockers)
		state.Standups = append(state.Standups, st)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

var tables = []string{"agents", "tasks", "messages", "documents", "notifications", "subscriptions", "activities", "standups"}

// Save implements app.StateRepository. The whole state is replaced in one transaction.
func (s *Store) Save(state *domain.MissionState) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := save(ctx, tx, state); err != nil {
		return err
	}
	return tx.Commit()
}

// Update implements app.StateUpdater. BEGIN IMMEDIATE takes the database write lock
// before the state is read, so a writer in another process either commits before
// the load or waits for busy_timeout until this transaction ends.
func (s *Store) Update(fn func(*domain.MissionState) error) (err error) {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlite conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	state, err := load(ctx, conn)
	if err != nil {
		return err
	}
	if err = fn(state); err != nil {
		return err
	}
	if err = save(ctx, conn, state); err != nil {
		return err
	}
	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// save replaces every table inside the caller's transaction; seq columns preserve slice order.
func save(ctx context.Context, tx execQuerier, state *domain.MissionState) error {
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, a := range state.Agents {
		if a == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO agents (agent_id, name, emoji, role, status, level, last_heartbeat, current_task_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			a.AgentID, a.Name, a.Emoji, a.Role, string(a.Status), string(a.Level), formatTime(a.LastHeartbeat), a.CurrentTaskID); err != nil {
			return fmt.Errorf("insert agent %s: %w", a.AgentID, err)
		}
	}

	for i, t := range state.Tasks {
		due := ""
		if t.DueDate != nil {
			due = formatTime(*t.DueDate)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO tasks (seq, id, title, description, status, assigned_to, created_by, priority, type, tags, due_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			i, t.ID, t.Title, t.Description, string(t.Status), t.AssignedTo, t.CreatedBy, string(t.Priority), string(t.Type), toJSON(strs(t.Tags)), due, formatTime(t.CreatedAt), formatTime(t.UpdatedAt)); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	for i, m := range state.Messages {
		attachments := m.Attachments
		if attachments == nil {
			attachments = []domain.Attachment{}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO messages (seq, id, task_id, from_agent_id, content, mentions, attachments, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			i, m.ID, m.TaskID, m.FromAgentID, m.Content, toJSON(strs(m.Mentions)), toJSON(attachments), formatTime(m.CreatedAt)); err != nil {
			return fmt.Errorf("insert message %s: %w", m.ID, err)
		}
	}

	for i, d := range state.Documents {
		if _, err := tx.ExecContext(ctx, "INSERT INTO documents (seq, id, title, content, type, task_id, agent_id, source_path, content_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			i, d.ID, d.Title, d.Content, string(d.Type), d.TaskID, d.AgentID, d.SourcePath, d.ContentHash, formatTime(d.CreatedAt), formatTime(d.UpdatedAt)); err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}

	for i, n := range state.Notifications {
		delivered := 0
		if n.Delivered {
			delivered = 1
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO notifications (seq, id, mentioned_agent_id, content, source_agent_id, task_id, message_id, delivered, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			i, n.ID, n.MentionedAgentID, n.Content, n.SourceAgentID, n.TaskID, n.MessageID, delivered, formatTime(n.CreatedAt)); err != nil {
			return fmt.Errorf("insert notification %s: %w", n.ID, err)
		}
	}

	for i, sub := range state.Subscriptions {
		if _, err := tx.ExecContext(ctx, "INSERT INTO subscriptions (seq, agent_id, task_id, created_at) VALUES (?, ?, ?, ?)",
			i, sub.AgentID, sub.TaskID, formatTime(sub.CreatedAt)); err != nil {
			return fmt.Errorf("insert subscription %s/%s: %w", sub.AgentID, sub.TaskID, err)
		}
	}

	for i, a := range state.Activities {
		if _, err := tx.ExecContext(ctx, "INSERT INTO activities (seq, id, agent_id, action, target_type, target_id, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			i, a.ID, a.AgentID, a.Action, string(a.TargetType), a.TargetID, a.Message, formatTime(a.CreatedAt)); err != nil {
			return fmt.Errorf("insert activity %s: %w", a.ID, err)
		}
	}

	for i, st := range state.Standups {
		if _, err := tx.ExecContext(ctx, "INSERT INTO standups (seq, id, date, agent_id, completed, planned, blockers, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			i, st.ID, st.Date, st.AgentID, toJSON(strs(st.Completed)), toJSON(strs(st.Planned)), toJSON(strs(st.Blockers)), formatTime(st.CreatedAt)); err != nil {
			return fmt.Errorf("insert standup %s: %w", st.ID, err)
		}
	}

	return nil
}

// IsConstraintErr reports whether err is a unique constraint violation.
func IsConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
