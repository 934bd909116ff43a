package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTouchNotifySignal_EmptyPath(t *testing.T) {
	if err := TouchNotifySignal(""); err != nil {
		t.Errorf("TouchNotifySignal(\"\") should not error, got %v", err)
	}
	if got := ReadNotifySignal(""); got != "" {
		t.Errorf("ReadNotifySignal(\"\") = %q, want empty", got)
	}
}

func TestTouchNotifySignal_CreatesFileAndDir(t *testing.T) {
	signalPath := filepath.Join(t.TempDir(), "subdir", ".missioncontrol-notify")
	if err := TouchNotifySignal(signalPath); err != nil {
		t.Fatalf("TouchNotifySignal: %v", err)
	}
	info, err := os.Stat(signalPath)
	if err != nil {
		t.Fatalf("signal file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("signal file should contain revision (non-empty)")
	}
}

func TestTouchNotifySignal_NewRevisionEachTouch(t *testing.T) {
	signalPath := filepath.Join(t.TempDir(), ".notify")
	if err := TouchNotifySignal(signalPath); err != nil {
		t.Fatal(err)
	}
	rev1 := ReadNotifySignal(signalPath)
	if err := TouchNotifySignal(signalPath); err != nil {
		t.Fatal(err)
	}
	rev2 := ReadNotifySignal(signalPath)
	if rev1 == "" || rev1 == rev2 {
		t.Errorf("revisions %q and %q should be distinct and non-empty", rev1, rev2)
	}
}

func TestReadNotifySignal_Missing(t *testing.T) {
	if got := ReadNotifySignal(filepath.Join(t.TempDir(), "nope")); got != "" {
		t.Errorf("ReadNotifySignal(missing) = %q, want empty", got)
	}
}
