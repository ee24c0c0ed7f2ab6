package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/kafka"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
	"github.com/shashiranjanraj/stockroom/pkg/ws"
)

// StockEvent is a new stock level for one SKU.
type StockEvent struct {
	SKU      string    `json:"sku"`
	NewStock int       `json:"newStock"`
	Source   string    `json:"source"`
	At       time.Time `json:"at"`
}

// Event sources.
const (
	SourceOrder     = "order"
	SourceReconcile = "reconcile"
)

// StockNotifier is told about stock changes after they are committed.
type StockNotifier interface {
	NotifyStock(ctx context.Context, ev StockEvent) error
}

// HubNotifier pushes events to live WebSocket subscribers of the SKU.
type HubNotifier struct {
	hub *ws.Hub
}

func NewHubNotifier(hub *ws.Hub) *HubNotifier { return &HubNotifier{hub: hub} }

func (n *HubNotifier) NotifyStock(_ context.Context, ev StockEvent) error {
	return n.hub.PublishJSON(ev.SKU, ev)
}

// KafkaNotifier publishes events keyed by SKU.
type KafkaNotifier struct {
	producer *kafka.Producer
}

func NewKafkaNotifier(p *kafka.Producer) *KafkaNotifier { return &KafkaNotifier{producer: p} }

func (n *KafkaNotifier) NotifyStock(ctx context.Context, ev StockEvent) error {
	return n.producer.PublishJSON(ctx, ev.SKU, ev)
}

// Fanout delivers each event to every registered notifier on a worker pool,
// so slow sinks never hold up the caller. Failures are logged and counted.
type Fanout struct {
	pool      *workerpool.Pool
	timeout   time.Duration
	names     []string
	notifiers []StockNotifier
}

// NewFanout runs deliveries on pool, each bounded by timeout.
func NewFanout(pool *workerpool.Pool, timeout time.Duration) *Fanout {
	return &Fanout{pool: pool, timeout: timeout}
}

// Add registers a notifier under name.
func (f *Fanout) Add(name string, n StockNotifier) *Fanout {
	f.names = append(f.names, name)
	f.notifiers = append(f.notifiers, n)
	return f
}

// Len returns the number of registered notifiers.
func (f *Fanout) Len() int { return len(f.notifiers) }

// NotifyStock schedules delivery. Order events are dropped when the pool is
// saturated; reconcile events arrive in batches, so NotifyStock waits for
// queue space instead. The caller's cancellation does not abort deliveries
// already scheduled.
func (f *Fanout) NotifyStock(ctx context.Context, ev StockEvent) error {
	base := context.WithoutCancel(ctx)
	submit := f.pool.Submit
	if ev.Source == SourceReconcile {
		submit = f.pool.SubmitWait
	}
	for i, n := range f.notifiers {
		name, n := f.names[i], n
		err := submit(func() {
			ctx, cancel := context.WithTimeout(base, f.timeout)
			defer cancel()
			if err := n.NotifyStock(ctx, ev); err != nil {
				metrics.StockNotifications.WithLabelValues(name, "failed").Inc()
				logger.WithCtx(ctx).Warn("stock notifier failed", "notifier", name, "sku", ev.SKU, "error", err)
				return
			}
			metrics.StockNotifications.WithLabelValues(name, "ok").Inc()
		})
		if err != nil {
			metrics.StockNotifications.WithLabelValues(name, "dropped").Inc()
			logger.WithCtx(ctx).Warn("stock notifier dropped event", "notifier", name, "sku", ev.SKU, "error", err)
		}
	}
	return nil
}
