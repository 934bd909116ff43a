package app

import (
	"context"
	"log"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/otel"
)

const (
	defaultDeliveryInterval = 2 * time.Second

	// DeliveryPrefix is prepended to every notification pushed to an agent.
	DeliveryPrefix = "[Mission Control] "
)

// Deliverer pushes text into an agent's session. Implementations live in internal/delivery.
type Deliverer interface {
	Deliver(ctx context.Context, agentID, text string) error
}

// DeliveryStats summarizes one delivery pass.
type DeliveryStats struct {
	Attempted int
	Failed    int
}

// DeliveryDaemon polls for undelivered notifications and pushes them through a Deliverer.
// Each notification is attempted once and then marked delivered whatever the outcome,
// so a failing recipient never blocks the queue and is never retried.
type DeliveryDaemon struct {
	svc       *MissionService
	deliverer Deliverer
	logger    *log.Logger
	interval  time.Duration
	wake      chan struct{}
}

// DaemonOption configures the delivery daemon.
type DaemonOption func(*DeliveryDaemon)

// WithDeliveryInterval sets the poll interval (default 2s).
func WithDeliveryInterval(d time.Duration) DaemonOption {
	return func(dd *DeliveryDaemon) {
		if d > 0 {
			dd.interval = d
		}
	}
}

// NewDeliveryDaemon creates a DeliveryDaemon.
func NewDeliveryDaemon(svc *MissionService, deliverer Deliverer, logger *log.Logger, opts ...DaemonOption) *DeliveryDaemon {
	d := &DeliveryDaemon{
		svc:       svc,
		deliverer: deliverer,
		logger:    logger,
		interval:  defaultDeliveryInterval,
		wake:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Trigger wakes the daemon for an early pass. Never blocks; wakes coalesce.
func (d *DeliveryDaemon) Trigger() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run delivers until ctx is cancelled. Passes run on this goroutine only, one at a time.
func (d *DeliveryDaemon) Run(ctx context.Context) {
	d.logger.Printf("Delivery daemon: started (interval %s)", d.interval)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Printf("Delivery daemon: stopped")
			return
		case <-timer.C:
		case <-d.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		stats := d.DeliverOnce(ctx)
		if stats.Attempted > 0 {
			d.logger.Printf("Delivery daemon: delivered %d notification(s), %d failed", stats.Attempted-stats.Failed, stats.Failed)
		}
		timer.Reset(d.interval)
	}
}

// DeliverOnce runs a single pass over the undelivered queue, oldest first.
func (d *DeliveryDaemon) DeliverOnce(ctx context.Context) DeliveryStats {
	var stats DeliveryStats
	pending, err := d.svc.UndeliveredNotifications()
	if err != nil {
		d.logger.Printf("Delivery daemon: list undelivered: %v", err)
		return stats
	}
	for _, n := range pending {
		if ctx.Err() != nil {
			return stats
		}
		stats.Attempted++
		start := time.Now()
		if err := d.deliverer.Deliver(ctx, n.MentionedAgentID, DeliveryPrefix+n.Content); err != nil {
			stats.Failed++
			otel.RecordDelivery(ctx, "failed", time.Since(start))
			d.logger.Printf("Delivery daemon: deliver %s to %s failed: %v", n.ID, n.MentionedAgentID, err)
		} else {
			otel.RecordDelivery(ctx, "ok", time.Since(start))
			d.logger.Printf("Delivery daemon: -> %s: %s", n.MentionedAgentID, Truncate(n.Content, 50))
		}
		if err := d.svc.MarkNotificationDelivered(n.ID); err != nil {
			d.logger.Printf("Delivery daemon: mark %s delivered: %v", n.ID, err)
		}
	}
	return stats
}
