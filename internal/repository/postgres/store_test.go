package postgres

import (
	"os"
	"testing"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

func TestOpen_RequiresDSN(t *testing.T) {
	if os.Getenv("DATABASE_URL") != "" {
		t.Skip("DATABASE_URL set; the empty-DSN path falls back to it")
	}
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") should fail without DATABASE_URL")
	}
}

func TestIsUniqueViolation_Nil(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}

func TestStoreRoundtrip_skipIfNoDatabaseURL(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping postgres test")
	}
	st, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = st.Close() }()

	now := time.Now().UTC().Truncate(time.Microsecond)
	state := domain.NewMissionState()
	state.Agents["a1"] = &domain.Agent{AgentID: "a1", Status: domain.AgentIdle, Level: domain.LevelWorking, LastHeartbeat: now}
	state.Tasks = append(state.Tasks, domain.Task{ID: "t1", Title: "T", Status: domain.StatusInbox, CreatedBy: "a1",
		Priority: domain.PriorityLow, Type: domain.TypeBug, Tags: []string{"x"}, CreatedAt: now, UpdatedAt: now})
	state.Messages = append(state.Messages, domain.Message{ID: "m1", TaskID: "t1", FromAgentID: "a1", Content: "hi",
		Mentions: []string{}, Attachments: []domain.Attachment{{Name: "n", URL: "u", Type: "t"}}, CreatedAt: now})
	state.Subscriptions = append(state.Subscriptions, domain.Subscription{AgentID: "a1", TaskID: "t1", CreatedAt: now})

	if err := st.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Tasks) != 1 || loaded.Tasks[0].Tags[0] != "x" || !loaded.Tasks[0].CreatedAt.Equal(now) {
		t.Errorf("tasks = %+v", loaded.Tasks)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].Attachments[0].URL != "u" {
		t.Errorf("messages = %+v", loaded.Messages)
	}

	state.Subscriptions = append(state.Subscriptions, state.Subscriptions[0])
	if err := st.Save(state); !IsUniqueViolation(err) {
		t.Errorf("duplicate subscription err = %v, want unique violation", err)
	}
}

func TestStoreUpdate_skipIfNoDatabaseURL(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping postgres test")
	}
	a, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = a.Close() }()
	b, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = b.Close() }()

	if err := a.Save(domain.NewMissionState()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// b commits while a holds its transaction open; a's save must not erase it.
	loaded := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- a.Update(func(state *domain.MissionState) error {
			close(loaded)
			<-release
			state.Standups = append(state.Standups, domain.Standup{ID: "s-a", Date: "2026-03-14", AgentID: "a",
				Completed: []string{}, Planned: []string{}, Blockers: []string{}, CreatedAt: time.Now().UTC()})
			return nil
		})
	}()
	<-loaded
	other := make(chan error, 1)
	go func() {
		other <- b.Update(func(state *domain.MissionState) error {
			state.Standups = append(state.Standups, domain.Standup{ID: "s-b", Date: "2026-03-14", AgentID: "b",
				Completed: []string{}, Planned: []string{}, Blockers: []string{}, CreatedAt: time.Now().UTC()})
			return nil
		})
	}()
	time.Sleep(100 * time.Millisecond)
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Update a: %v", err)
	}
	if err := <-other; err != nil {
		t.Fatalf("Update b: %v", err)
	}

	got, err := a.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Standups) != 2 {
		t.Errorf("standups = %+v, want both writers kept", got.Standups)
	}
}
