package delivery

import (
	"context"
	"log"
)

// Log only logs deliveries. Useful for local runs without an agent gateway.
type Log struct {
	logger *log.Logger
}

// NewLog returns a log-only deliverer.
func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.Default()
	}
	return &Log{logger: logger}
}

// Deliver logs the text and always succeeds.
func (l *Log) Deliver(_ context.Context, agentID, text string) error {
	l.logger.Printf("deliver -> %s: %s", agentID, text)
	return nil
}

// Close implements io.Closer.
func (l *Log) Close() error { return nil }
