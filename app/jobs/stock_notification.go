// Package jobs holds the queue job types.
package jobs

import (
	"context"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/http"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

// StockNotificationJob is the queue name of StockNotification.
const StockNotificationJob = "stock.notify"

// StockNotificationPolicy is the retry policy of every webhook delivery.
var StockNotificationPolicy = queue.Options{Attempts: 5, Backoff: time.Second}

// StockNotification delivers {sku, newStock} to a subscriber's endpoint.
type StockNotification struct {
	Endpoint string `json:"endpoint"`
	SKU      string `json:"sku"`
	NewStock int    `json:"newStock"`

	client *http.Client
}

type stockPayload struct {
	SKU      string `json:"sku"`
	NewStock int    `json:"newStock"`
}

// Handle POSTs the payload. A transport error or non-2xx reply fails the
// attempt so the queue retries it.
func (j *StockNotification) Handle(ctx context.Context) error {
	resp, err := j.client.Post(j.Endpoint).
		Body(stockPayload{SKU: j.SKU, NewStock: j.NewStock}).
		Send(ctx)
	if err != nil {
		return err
	}
	return resp.Throw()
}

// Register makes the job types decodable by m, delivering through client.
func Register(m *queue.Manager, client *http.Client) {
	m.Register(StockNotificationJob, func() queue.Job {
		return &StockNotification{client: client}
	})
}
