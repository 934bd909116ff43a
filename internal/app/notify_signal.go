package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TouchNotifySignal writes a monotonic revision (timestamp) to the signal file
// so watchers in other processes can detect state changes. Creates parent dir and file if needed.
func TouchNotifySignal(signalPath string) error {
	if signalPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(signalPath), 0755); err != nil {
		return fmt.Errorf("create signal file dir: %w", err)
	}
	rev := strconv.FormatInt(time.Now().UnixNano(), 10)
	return os.WriteFile(signalPath, []byte(rev), 0644)
}

// ReadNotifySignal returns the last revision written to the signal file, or "" if none.
func ReadNotifySignal(signalPath string) string {
	if signalPath == "" {
		return ""
	}
	data, err := os.ReadFile(signalPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
