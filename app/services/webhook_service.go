package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

// Dispatcher enqueues jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, job queue.Job, opts queue.Options) error
}

// CreateWebhookInput registers a stock alert.
type CreateWebhookInput struct {
	Endpoint string  `json:"endpoint" validate:"required,url"`
	SKU      *string `json:"sku" validate:"omitempty,min=1,max=100"`
	MinStock int     `json:"minStock" validate:"min=0"`
}

// WebhookService manages stock alert subscriptions and queues their
// deliveries.
type WebhookService struct {
	repo  *repositories.WebhookRepository
	queue Dispatcher
}

func NewWebhookService(repo *repositories.WebhookRepository, q Dispatcher) *WebhookService {
	return &WebhookService{repo: repo, queue: q}
}

// Create stores a subscription. The endpoint is not contacted. A blank SKU
// subscribes to every SKU.
func (s *WebhookService) Create(ctx context.Context, in CreateWebhookInput) (*models.WebhookSubscription, error) {
	sku := in.SKU
	if sku != nil && strings.TrimSpace(*sku) == "" {
		sku = nil
	}
	sub := &models.WebhookSubscription{Endpoint: in.Endpoint, SKU: sku, MinStock: in.MinStock}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	return sub, nil
}

// FindFor returns the subscriptions an event for sku at newStock matches.
func (s *WebhookService) FindFor(ctx context.Context, sku string, newStock int) ([]models.WebhookSubscription, error) {
	return s.repo.FindFor(ctx, sku, newStock)
}

// NotifyAll queues one delivery per matching subscription and returns how
// many were queued. Repeated events are not deduplicated.
func (s *WebhookService) NotifyAll(ctx context.Context, sku string, newStock int) (int, error) {
	subs, err := s.FindFor(ctx, sku, newStock)
	if err != nil {
		return 0, fmt.Errorf("find webhooks for %s: %w", sku, err)
	}

	queued := 0
	var errs []error
	for _, sub := range subs {
		job := &jobs.StockNotification{Endpoint: sub.Endpoint, SKU: sku, NewStock: newStock}
		if err := s.queue.Dispatch(ctx, jobs.StockNotificationJob, job, jobs.StockNotificationPolicy); err != nil {
			errs = append(errs, fmt.Errorf("queue webhook %s: %w", sub.ID, err))
			continue
		}
		queued++
	}

	metrics.StockNotifications.WithLabelValues("webhook", "queued").Add(float64(queued))
	if queued > 0 {
		logger.WithCtx(ctx).Info("webhooks queued", "sku", sku, "newStock", newStock, "count", queued)
	}
	return queued, errors.Join(errs...)
}

// NotifyStock lets the service act as a StockNotifier.
func (s *WebhookService) NotifyStock(ctx context.Context, ev StockEvent) error {
	_, err := s.NotifyAll(ctx, ev.SKU, ev.NewStock)
	return err
}
