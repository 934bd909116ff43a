package app

import (
	"context"
	"log"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/policy"
)

const defaultWatchdogInterval = 60 * time.Second

// Watchdog marks agents offline when their heartbeat goes stale.
// With WithRetention it also prunes delivered notifications on every tick.
type Watchdog struct {
	svc       *MissionService
	logger    *log.Logger
	interval  time.Duration
	ttl       time.Duration
	retention *policy.RetentionConfig
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// WatchdogOption configures the watchdog.
type WatchdogOption func(*Watchdog)

// WithWatchdogInterval sets the check interval.
func WithWatchdogInterval(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.interval = d }
}

// WithHeartbeatThreshold sets how old a heartbeat may get before the agent is marked offline.
func WithHeartbeatThreshold(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.ttl = d }
}

// WithRetention enables notification pruning with the given rules.
func WithRetention(rules policy.RetentionConfig) WatchdogOption {
	return func(w *Watchdog) { w.retention = &rules }
}

// NewWatchdog creates a Watchdog. The stale threshold defaults to the policy's presence TTL.
func NewWatchdog(svc *MissionService, logger *log.Logger, opts ...WatchdogOption) *Watchdog {
	w := &Watchdog{
		svc:      svc,
		logger:   logger,
		interval: defaultWatchdogInterval,
		ttl:      time.Duration(svc.Policy().PresenceTTLSeconds()) * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Start runs checks until ctx is cancelled or Stop is called.
func (w *Watchdog) Start(ctx context.Context) {
	defer close(w.doneCh)
	if w.ttl <= 0 && w.retention == nil {
		w.logger.Printf("Watchdog: presence TTL disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.ttl > 0 {
				w.Check()
			}
			w.Prune()
		}
	}
}

// Stop signals the watchdog to stop and waits for it.
func (w *Watchdog) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// Check runs one pass and returns the agents it marked offline.
func (w *Watchdog) Check() []string {
	now := w.svc.Now()
	var stale []string
	// Read first so an idle roster does not cost a write every interval.
	_ = w.svc.Query(func(state *domain.MissionState) error {
		stale = staleAgents(state, now, w.ttl)
		return nil
	})
	if len(stale) == 0 {
		return nil
	}
	var marked []string
	err := w.svc.Run(func(state *domain.MissionState) error {
		marked = staleAgents(state, now, w.ttl)
		for _, id := range marked {
			state.Agents[id].Status = domain.AgentOffline
		}
		return nil
	})
	if err != nil {
		w.logger.Printf("Watchdog: mark offline: %v", err)
		return nil
	}
	for _, id := range marked {
		w.logger.Printf("Watchdog: %s marked offline (no heartbeat for %s)", id, w.ttl)
	}
	return marked
}

// Prune runs one retention pass and returns the number of notifications removed.
// No-op without WithRetention.
func (w *Watchdog) Prune() int {
	if w.retention == nil {
		return 0
	}
	n, err := w.svc.Prune(*w.retention)
	if err != nil {
		w.logger.Printf("Watchdog: prune: %v", err)
		return 0
	}
	if n > 0 {
		w.logger.Printf("Watchdog: pruned %d delivered notification(s)", n)
	}
	return n
}

func staleAgents(state *domain.MissionState, now time.Time, ttl time.Duration) []string {
	var out []string
	for id, a := range state.Agents {
		if a == nil || a.Status == domain.AgentOffline {
			continue
		}
		if now.Sub(a.LastHeartbeat) > ttl {
			out = append(out, id)
		}
	}
	return out
}
