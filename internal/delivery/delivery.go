// Package delivery pushes notification text into agent sessions.
package delivery

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/policy"
)

// Deliverer is an app.Deliverer that may hold resources.
type Deliverer interface {
	app.Deliverer
	io.Closer
}

// New builds the deliverer selected by cfg.Mode.
func New(cfg *policy.DeliveryConfig, logger *log.Logger) (Deliverer, error) {
	if cfg == nil {
		cfg = policy.DefaultDelivery()
	}
	switch cfg.Mode {
	case "", policy.DeliveryCommand:
		return NewCommand(cfg.Command, cfg.SessionTemplate, time.Duration(cfg.TimeoutSeconds)*time.Second)
	case policy.DeliveryRedis:
		return NewRedis(cfg.RedisURL, cfg.RedisStream, cfg.SessionTemplate)
	case policy.DeliveryLog:
		return NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown delivery mode %q (want command, redis or log)", cfg.Mode)
	}
}

// sessionKey renders the session key for agentID. A template policy would reject
// falls back to the default.
func sessionKey(template, agentID string) string {
	if !policy.ValidSessionTemplate(template) {
		template = policy.DefaultDelivery().SessionTemplate
	}
	return fmt.Sprintf(template, agentID)
}
