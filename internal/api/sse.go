package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/otel"
)

// ChangeEvent is published to /api/events subscribers after every state write.
type ChangeEvent struct {
	Type     string    `json:"type"`
	Revision uint64    `json:"revision"`
	At       time.Time `json:"at"`
}

// SSEHub fans change events out to server-sent event clients.
// It implements app.Triggerable so MissionService pokes it after each save.
type SSEHub struct {
	mu       sync.RWMutex
	subs     map[chan []byte]struct{}
	revision atomic.Uint64
}

func NewSSEHub() *SSEHub {
	return &SSEHub{subs: make(map[chan []byte]struct{})}
}

func (h *SSEHub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	otel.SSEConnect()
	return ch
}

func (h *SSEHub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
		otel.SSEDisconnect()
	}
	h.mu.Unlock()
}

// Subscribers returns the number of connected clients.
func (h *SSEHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Trigger publishes a "changed" event with a fresh revision.
func (h *SSEHub) Trigger() {
	h.PublishJSON(ChangeEvent{
		Type:     "changed",
		Revision: h.revision.Add(1),
		At:       time.Now().UTC(),
	})
}

// PublishJSON sends v to every subscriber. Slow subscribers miss the event.
func (h *SSEHub) PublishJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	otel.RecordSSEEvent(context.Background())
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- b:
		default:
		}
	}
}

// Stream serves the change feed until the client goes away.
func (h *SSEHub) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", `{"type":"connected"}`)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			_, _ = fmt.Fprint(c.Writer, ": keepalive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}
