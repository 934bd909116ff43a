// Package postgres is the PostgreSQL StateRepository, for deployments where several
// mission control processes share one database server.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const opTimeout = 30 * time.Second

// Store implements app.StateRepository on a pgx connection pool.
type Store struct {
	Pool *pgxpool.Pool
}

var (
	_ app.StateRepository = (*Store)(nil)
	_ app.StateUpdater    = (*Store)(nil)
)

// Open opens a PostgreSQL connection pool and runs migrations. dsn may be empty to use DATABASE_URL env.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, errors.New("postgres DSN or DATABASE_URL required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	cfg.MaxConns = 10
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := &Store{Pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.Pool == nil {
		return nil
	}
	s.Pool.Close()
	return nil
}

// Migrate runs pending migrations (only those not already in schema_migrations).
func (s *Store) Migrate(ctx context.Context) error {
	applied := make(map[int]bool)
	rows, err := s.Pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err == nil {
		for rows.Next() {
			var v int
			if err := rows.Scan(&v); err != nil {
				break
			}
			applied[v] = true
		}
		rows.Close()
	}

	type migration struct {
		version int
		sql     string
	}
	var pending []migration
	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		v, err := strconv.Atoi(strings.SplitN(strings.TrimSuffix(f.Name(), ".sql"), "_", 2)[0])
		if err != nil || applied[v] {
			continue
		}
		body, err := migrationsFS.ReadFile("migrations/" + f.Name())
		if err != nil {
			return err
		}
		pending = append(pending, migration{v, string(body)})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })

	for _, m := range pending {
		if _, err := s.Pool.Exec(ctx, m.sql); err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		if _, err := s.Pool.Exec(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2) ON CONFLICT (version) DO NOTHING`, m.version, time.Now().Unix()); err != nil {
			return err
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func strs(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// stateLockKey is the advisory lock held by Update for the length of its transaction.
const stateLockKey int64 = 0x6d697373696f6e

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Load implements app.StateRepository.
func (s *Store) Load() (*domain.MissionState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return load(ctx, s.Pool)
}

func load(ctx context.Context, q querier) (*domain.MissionState, error) {
	state := domain.NewMissionState()

	rows, err := q.Query(ctx, `SELECT agent_id, name, emoji, role, status, level, last_heartbeat, current_task_id FROM agents`)
	if err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}
	for rows.Next() {
		var a domain.Agent
		var status, level string
		if err := rows.Scan(&a.AgentID, &a.Name, &a.Emoji, &a.Role, &status, &level, &a.LastHeartbeat, &a.CurrentTaskID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("agents: %w", err)
		}
		a.Status, a.Level = domain.AgentStatus(status), domain.AgentLevel(level)
		a.LastHeartbeat = a.LastHeartbeat.UTC()
		state.Agents[a.AgentID] = &a
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("agents iteration: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT id, title, description, status, assigned_to, created_by, priority, type, tags, due_date, created_at, updated_at FROM tasks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}
	for rows.Next() {
		var t domain.Task
		var status, priority, typ string
		var due *time.Time
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &status, &t.AssignedTo, &t.CreatedBy, &priority, &typ, &t.Tags, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("tasks: %w", err)
		}
		t.Status, t.Priority, t.Type = domain.TaskStatus(status), domain.Priority(priority), domain.TaskType(typ)
		t.Tags = strs(t.Tags)
		t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
		if due != nil {
			d := due.UTC()
			t.DueDate = &d
		}
		state.Tasks = append(state.Tasks, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tasks iteration: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT id, task_id, from_agent_id, content, mentions, attachments, created_at FROM messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("messages: %w", err)
	}
	for rows.Next() {
		var m domain.Message
		var attachments []byte
		if err := rows.Scan(&m.ID, &m.TaskID, &m.FromAgentID, &m.Content, &m.Mentions, &attachments, &m.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("messages: %w", err)
		}
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			rows.Close()
			return nil, fmt.Errorf("messages attachments: %w", err)
		}
		if m.Attachments == nil {
			m.Attachments = []domain.Attachment{}
		}
		m.Mentions = strs(m.Mentions)
		m.CreatedAt = m.CreatedAt.UTC()
		state.Messages = append(state.Messages, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messages iteration: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT id, title, content, type, task_id, agent_id, source_path, content_hash, created_at, updated_at FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	for rows.Next() {
		var d domain.Document
		var typ string
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &typ, &d.TaskID, &d.AgentID, &d.SourcePath, &d.ContentHash, &d.CreatedAt, &d.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("documents: %w", err)
		}
		d.Type = domain.DocumentType(typ)
		d.CreatedAt, d.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
		state.Documents = append(state.Documents, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documents iteration: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT id, mentioned_agent_id, content, source_agent_id, task_id, message_id, delivered, created_at FROM notifications ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.MentionedAgentID, &n.Content, &n.SourceAgentID, &n.TaskID, &n.MessageID, &n.Delivered, &n.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("notifications: %w", err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		state.Notifications = append(state.Notifications, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifications iteration: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT agent_id, task_id, created_at FROM subscriptions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("subscriptions: %w", err)
	}
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(&sub.AgentID, &sub.TaskID, &sub.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("subscriptions: %w", err)
		}
		sub.CreatedAt = sub.CreatedAt.UTC()
		state.Subscriptions = append(state.Subscriptions, sub)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("subscriptions iteration: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT id, agent_id, action, target_type, target_id, message, created_at FROM activities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("activities: %w", err)
	}
	for rows.Next() {
		var a domain.Activity
		var target string
		if err := rows.Scan(&a.ID, &a.AgentID, &a.Action, &target, &a.TargetID, &a.Message, &a.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("activities: %w", err)
		}
		a.TargetType = domain.TargetType(target)
		a.CreatedAt = a.CreatedAt.UTC()
		state.Activities = append(state.Activities, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activities iteration: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT id, date, agent_id, completed, planned, blockers, created_at FROM standups ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("standups: %w", err)
	}
	for rows.Next() {
		var st domain.Standup
		if err := rows.Scan(&st.ID, &st.Date, &st.AgentID, &st.Completed, &st.Planned, &st.Blockers, &st.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("standups: %w", err)
		}
		st.Completed, st.Planned, st.Blockers = strs(st.Completed), strs(st.Planned), strs(st.Blockers)
		st.CreatedAt = st.CreatedAt.UTC()
		state.Standups = append(state.Standups, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("standups iteration: %w", err)
	}

	return state, nil
}

// Save implements app.StateRepository. The state is replaced in one transaction
// with all inserts sent as a single batch.
func (s *Store) Save(state *domain.MissionState) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockState(ctx, tx); err != nil {
		return err
	}
	if err := save(ctx, tx, state); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update implements app.StateUpdater. The advisory lock serializes every writer
// sharing the database, so fn always sees the latest committed state.
func (s *Store) Update(fn func(*domain.MissionState) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockState(ctx, tx); err != nil {
		return err
	}
	state, err := load(ctx, tx)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	if err := save(ctx, tx, state); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func lockState(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, stateLockKey); err != nil {
		return fmt.Errorf("state lock: %w", err)
	}
	return nil
}

func save(ctx context.Context, tx pgx.Tx, state *domain.MissionState) error {
	if _, err := tx.Exec(ctx, `TRUNCATE agents, tasks, messages, documents, notifications, subscriptions, activities, standups`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range state.Agents {
		if a == nil {
			continue
		}
		batch.Queue(`INSERT INTO agents (agent_id, name, emoji, role, status, level, last_heartbeat, current_task_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.AgentID, a.Name, a.Emoji, a.Role, string(a.Status), string(a.Level), a.LastHeartbeat, a.CurrentTaskID)
	}
	for i, t := range state.Tasks {
		batch.Queue(`INSERT INTO tasks (seq, id, title, description, status, assigned_to, created_by, priority, type, tags, due_date, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			i, t.ID, t.Title, t.Description, string(t.Status), t.AssignedTo, t.CreatedBy, string(t.Priority), string(t.Type), strs(t.Tags), t.DueDate, t.CreatedAt, t.UpdatedAt)
	}
	for i, m := range state.Messages {
		attachments := m.Attachments
		if attachments == nil {
			attachments = []domain.Attachment{}
		}
		raw, err := json.Marshal(attachments)
		if err != nil {
			return fmt.Errorf("message %s attachments: %w", m.ID, err)
		}
		batch.Queue(`INSERT INTO messages (seq, id, task_id, from_agent_id, content, mentions, attachments, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			i, m.ID, m.TaskID, m.FromAgentID, m.Content, strs(m.Mentions), string(raw), m.CreatedAt)
	}
	for i, d := range state.Documents {
		batch.Queue(`INSERT INTO documents (seq, id, title, content, type, task_id, agent_id, source_path, content_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			i, d.ID, d.Title, d.Content, string(d.Type), d.TaskID, d.AgentID, d.SourcePath, d.ContentHash, d.CreatedAt, d.UpdatedAt)
	}
	for i, n := range state.Notifications {
		batch.Queue(`INSERT INTO notifications (seq, id, mentioned_agent_id, content, source_agent_id, task_id, message_id, delivered, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			i, n.ID, n.MentionedAgentID, n.Content, n.SourceAgentID, n.TaskID, n.MessageID, n.Delivered, n.CreatedAt)
	}
	for i, sub := range state.Subscriptions {
		batch.Queue(`INSERT INTO subscriptions (seq, agent_id, task_id, created_at) VALUES ($1, $2, $3, $4)`,
			i, sub.AgentID, sub.TaskID, sub.CreatedAt)
	}
	for i, a := range state.Activities {
		batch.Queue(`INSERT INTO activities (seq, id, agent_id, action, target_type, target_id, message, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			i, a.ID, a.AgentID, a.Action, string(a.TargetType), a.TargetID, a.Message, a.CreatedAt)
	}
	for i, st := range state.Standups {
		batch.Queue(`INSERT INTO standups (seq, id, date, agent_id, completed, planned, blockers, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			i, st.ID, st.Date, st.AgentID, strs(st.Completed), strs(st.Planned), strs(st.Blockers), st.CreatedAt)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return nil
}
