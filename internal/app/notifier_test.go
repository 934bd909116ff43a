package app

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNotifierCheckOnce(t *testing.T) {
	signal := filepath.Join(t.TempDir(), ".missioncontrol-notify")
	if err := os.WriteFile(signal, []byte("1"), 0644); err != nil {
		t.Fatal(err)
	}
	trig := &countingTrigger{}
	n := NewNotifier(signal, log.New(io.Discard, "", 0), []Triggerable{trig})

	if n.CheckOnce() {
		t.Error("revision present at construction should count as seen")
	}
	if err := os.WriteFile(signal, []byte("2"), 0644); err != nil {
		t.Fatal(err)
	}
	if !n.CheckOnce() {
		t.Error("new revision should fire")
	}
	if n.CheckOnce() {
		t.Error("same revision should not fire twice")
	}
	if trig.count() != 1 {
		t.Errorf("triggers = %d, want 1", trig.count())
	}
}

func TestNotifierCheckOnce_MissingFile(t *testing.T) {
	trig := &countingTrigger{}
	n := NewNotifier(filepath.Join(t.TempDir(), "absent"), log.New(io.Discard, "", 0), []Triggerable{trig})
	if n.CheckOnce() || trig.count() != 0 {
		t.Error("missing signal file should never fire")
	}
}

func TestNotifier_PollFiresOnRun(t *testing.T) {
	signal := filepath.Join(t.TempDir(), ".missioncontrol-notify")
	trig := &countingTrigger{}
	n := NewNotifier(signal, log.New(io.Discard, "", 0), []Triggerable{trig},
		WithPollInterval(20*time.Millisecond), WithDebounce(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	go n.Start(ctx)

	if err := TouchNotifySignal(signal); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for trig.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	n.Stop()
	if trig.count() == 0 {
		t.Error("notifier should fire after the signal file changes")
	}
}
