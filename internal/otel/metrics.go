package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce      sync.Once
	taskOpsCounter       metric.Int64Counter
	notificationsCounter metric.Int64Counter
	deliveriesCounter    metric.Int64Counter
	deliveryDuration     metric.Float64Histogram
	httpRequestsCounter  metric.Int64Counter
	sseEventsCounter     metric.Int64Counter
	sseConnectionsGauge  metric.Int64ObservableGauge
	sseConnections       int64
	sseConnectionsMu     sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider. Record* helpers are no-ops until this has run.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		taskOpsCounter, err = m.Int64Counter("missioncontrol_task_operations_total", metric.WithDescription("Task operations (create, assign, status, update)"))
		if err != nil {
			return
		}
		notificationsCounter, err = m.Int64Counter("missioncontrol_notifications_created_total", metric.WithDescription("Notifications created, by kind"))
		if err != nil {
			return
		}
		deliveriesCounter, err = m.Int64Counter("missioncontrol_deliveries_total", metric.WithDescription("Delivery attempts, by outcome"))
		if err != nil {
			return
		}
		deliveryDuration, err = m.Float64Histogram("missioncontrol_delivery_duration_seconds", metric.WithDescription("Time spent in a single delivery attempt"))
		if err != nil {
			return
		}
		httpRequestsCounter, err = m.Int64Counter("missioncontrol_http_requests_total", metric.WithDescription("HTTP API requests"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("missioncontrol_sse_events_total", metric.WithDescription("Change events published to SSE subscribers"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("missioncontrol_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
	})
	return err
}

// RecordTaskOp records a task operation and its outcome (ok, not_found, invalid, error).
func RecordTaskOp(ctx context.Context, op, outcome string) {
	if taskOpsCounter == nil {
		return
	}
	taskOpsCounter.Add(ctx, 1, metric.WithAttributes(
		AttrOperation.String(op),
		AttrOutcome.String(outcome),
	))
}

// RecordNotifications records n notifications of the given kind (assignment, mention, subscriber, manual).
func RecordNotifications(ctx context.Context, kind string, n int) {
	if notificationsCounter == nil || n <= 0 {
		return
	}
	notificationsCounter.Add(ctx, int64(n), metric.WithAttributes(AttrKind.String(kind)))
}

// RecordDelivery records one delivery attempt.
func RecordDelivery(ctx context.Context, outcome string, d time.Duration) {
	if deliveriesCounter == nil {
		return
	}
	deliveriesCounter.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(outcome)))
	if deliveryDuration != nil {
		deliveryDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrOutcome.String(outcome)))
	}
}

// RecordHTTPRequest records an API request by route and status class.
func RecordHTTPRequest(ctx context.Context, route string, status int) {
	if httpRequestsCounter == nil {
		return
	}
	httpRequestsCounter.Add(ctx, 1, metric.WithAttributes(
		AttrRoute.String(route),
		AttrOutcome.Int(status),
	))
}

// RecordSSEEvent records one published change event.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter == nil {
		return
	}
	sseEventsCounter.Add(ctx, 1)
}

// SSEConnect and SSEDisconnect track the live subscriber gauge.
func SSEConnect() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

func SSEDisconnect() {
	sseConnectionsMu.Lock()
	if sseConnections > 0 {
		sseConnections--
	}
	sseConnectionsMu.Unlock()
}
