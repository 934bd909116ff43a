package app

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounceMs   = 200
	defaultPollInterval = 10 * time.Second
)

// Notifier watches the signal file written by MissionService.Run and fires its
// targets when another process changes the state (e.g. a CLI command waking a
// separately running delivery daemon). Falls back to polling when fsnotify is unavailable.
type Notifier struct {
	signalPath   string
	targets      []Triggerable
	logger       *log.Logger
	debounceMs   int
	pollInterval time.Duration

	mu            sync.Mutex
	lastRev       string
	debounceTimer *time.Timer
	watcher       *fsnotify.Watcher
	useFsnotify   bool
	stopCh        chan struct{}
	doneCh        chan struct{}
	fireMu        sync.Mutex
}

// NotifierOption configures the notifier.
type NotifierOption func(*Notifier)

// WithPollInterval sets the fallback poll interval (default 10s).
func WithPollInterval(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		n.pollInterval = d
	}
}

// WithDebounce sets the debounce window for bursts of signal writes.
func WithDebounce(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		n.debounceMs = int(d / time.Millisecond)
	}
}

// NewNotifier creates a notifier that fires targets when the signal file's revision changes.
// The revision present at construction counts as already seen.
func NewNotifier(signalPath string, logger *log.Logger, targets []Triggerable, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		signalPath:   signalPath,
		targets:      targets,
		logger:       logger,
		debounceMs:   defaultDebounceMs,
		pollInterval: defaultPollInterval,
		lastRev:      ReadNotifySignal(signalPath),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Start starts the file watcher and fallback poll. Returns when ctx is cancelled.
// If fsnotify fails to initialize, falls back to poll-only mode.
func (n *Notifier) Start(ctx context.Context) {
	defer close(n.doneCh)

	watchDir := filepath.Dir(n.signalPath)
	signalName := filepath.Base(n.signalPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		n.logger.Printf("Notifier: fsnotify init failed (%v), using poll-only", err)
	} else {
		n.watcher = watcher
		n.useFsnotify = true
		if err := watcher.Add(watchDir); err != nil {
			n.logger.Printf("Notifier: fsnotify add %s failed (%v), using poll-only", watchDir, err)
			_ = watcher.Close()
			n.watcher = nil
			n.useFsnotify = false
		}
	}

	if n.useFsnotify {
		defer n.watcher.Close()
		go n.watchLoop(ctx, signalName)
	}

	n.pollLoop(ctx)
}

// Stop signals the notifier to stop. Call after cancelling the context passed to Start.
func (n *Notifier) Stop() {
	close(n.stopCh)
	<-n.doneCh
}

// CheckOnce fires targets if the signal revision changed since the last check.
func (n *Notifier) CheckOnce() bool {
	return n.checkAndFire()
}

func (n *Notifier) watchLoop(ctx context.Context, signalName string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.stopCh:
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != signalName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			n.triggerDebounced()
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Printf("Notifier: watch error: %v", err)
		}
	}
}

func (n *Notifier) triggerDebounced() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.debounceTimer != nil {
		n.debounceTimer.Stop()
	}
	n.debounceTimer = time.AfterFunc(time.Duration(n.debounceMs)*time.Millisecond, func() {
		n.checkAndFire()
	})
}

func (n *Notifier) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.stopCh:
			return
		case <-ticker.C:
			n.checkAndFire()
		}
	}
}

func (n *Notifier) checkAndFire() bool {
	// The debounce timer and the poll loop may both get here for one write.
	n.fireMu.Lock()
	defer n.fireMu.Unlock()

	rev := ReadNotifySignal(n.signalPath)
	if rev == "" {
		return false
	}
	n.mu.Lock()
	if rev == n.lastRev {
		n.mu.Unlock()
		return false
	}
	n.lastRev = rev
	n.mu.Unlock()

	for _, t := range n.targets {
		t.Trigger()
	}
	return true
}
