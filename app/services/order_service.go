// Package services holds the business rules. Services receive validated
// input, talk to the database through repositories and return apperr
// errors that controllers map to HTTP statuses.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
	"github.com/shopspring/decimal"
)

// OrderLine is one requested SKU and quantity.
type OrderLine struct {
	SKU string `json:"sku" validate:"required,max=100"`
	Qty int    `json:"qty" validate:"required,min=1"`
}

// CreateOrderInput is the body of POST /v1/orders.
type CreateOrderInput struct {
	Items []OrderLine `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusInput is the body of PATCH /v1/orders/{id}/status.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=PLACED PAID DISPATCHED"`
}

// OrderListInput is the query of GET /v1/orders.
type OrderListInput struct {
	Cursor string
	Search string
	Limit  int
}

const (
	defaultOrderLimit = 10
	maxOrderLimit     = 100
)

// transitions lists the statuses each status may move to.
var transitions = map[string][]string{
	models.OrderPlaced:     {models.OrderPaid},
	models.OrderPaid:       {models.OrderDispatched},
	models.OrderDispatched: {},
}

// CanTransition reports whether an order in from may move to to.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService places orders and moves them through their lifecycle.
type OrderService struct {
	repos       *repositories.Repositories
	webhooks    StockNotifier
	feeds       StockNotifier
	concurrency int
	now         func() time.Time
}

// NewOrderService wires the service. webhooks is called synchronously after
// every committed order; feeds may be nil.
func NewOrderService(repos *repositories.Repositories, webhooks, feeds StockNotifier, concurrency int) *OrderService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &OrderService{
		repos:       repos,
		webhooks:    webhooks,
		feeds:       feeds,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// CreateOrder validates every line against current stock, then decrements
// stock and records the order in one transaction. Stock notifications are
// sent once the transaction has committed.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	order, err := s.createOrder(ctx, in)
	if err != nil {
		metrics.OrdersPlaced.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}
	metrics.OrdersPlaced.WithLabelValues("ok").Inc()
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	variations, err := workerpool.Map(ctx, s.concurrency, in.Items,
		func(ctx context.Context, line OrderLine) (*models.ProductVariation, error) {
			v, err := s.repos.Variations.FindBySKU(ctx, line.SKU)
			if err != nil {
				return nil, apperr.Internal(fmt.Errorf("find sku %s: %w", line.SKU, err))
			}
			if v == nil {
				return nil, apperr.NotFound("SKU not found: %s", line.SKU)
			}
			if line.Qty > v.Stock {
				return nil, apperr.InsufficientStock("Insufficient stock for SKU %s", line.SKU)
			}
			return v, nil
		})
	if err != nil {
		return nil, err
	}

	order := &models.Order{Status: models.OrderPlaced, TotalAmount: decimal.Zero}
	for i, line := range in.Items {
		v := variations[i]
		order.TotalAmount = order.TotalAmount.Add(v.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
		order.Items = append(order.Items, models.OrderItem{
			ProductID: v.ProductID,
			Quantity:  line.Qty,
			Price:     v.Price,
		})
	}

	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		for i, line := range in.Items {
			ok, err := tx.Variations.DecrementStock(ctx, variations[i].ID, line.Qty)
			if err != nil {
				return fmt.Errorf("decrement %s: %w", line.SKU, err)
			}
			if !ok {
				return apperr.InsufficientStock("Insufficient stock for SKU %s", line.SKU)
			}
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	logger.WithCtx(ctx).Info("order placed", "order_id", order.ID, "items", len(order.Items), "total", order.TotalAmount.String())
	s.notify(ctx, in.Items, variations)
	return order, nil
}

// notify reports each line's post-order stock. Lines repeating a SKU see the
// stock left after the earlier lines.
func (s *OrderService) notify(ctx context.Context, lines []OrderLine, variations []*models.ProductVariation) {
	remaining := make(map[string]int, len(lines))
	for i, line := range lines {
		stock, seen := remaining[variations[i].ID]
		if !seen {
			stock = variations[i].Stock
		}
		stock -= line.Qty
		remaining[variations[i].ID] = stock

		ev := StockEvent{SKU: line.SKU, NewStock: stock, Source: SourceOrder, At: s.now().UTC()}
		if s.webhooks != nil {
			if err := s.webhooks.NotifyStock(ctx, ev); err != nil {
				logger.WithCtx(ctx).Error("stock webhook notification failed", "sku", ev.SKU, "error", err)
			}
		}
		if s.feeds != nil {
			_ = s.feeds.NotifyStock(ctx, ev)
		}
	}
}

// UpdateStatus moves an order forward one step.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if order == nil {
		return nil, apperr.NotFound("Order not found")
	}
	if !CanTransition(order.Status, status) {
		return nil, apperr.InvalidTransition("Cannot transition %s → %s", order.Status, status)
	}

	ok, err := s.repos.Orders.SetStatus(ctx, id, order.Status, status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		// Someone else moved it first; report against the status they set.
		current, err := s.repos.Orders.FindByID(ctx, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if current == nil {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.InvalidTransition("Cannot transition %s → %s", current.Status, status)
	}

	logger.WithCtx(ctx).Info("order status changed", "order_id", id, "from", order.Status, "to", status)
	updated, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return updated, nil
}

// FindAll lists orders newest first. Limit defaults to 10 and is capped at 100.
func (s *OrderService) FindAll(ctx context.Context, in OrderListInput) ([]models.Order, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultOrderLimit
	}
	if limit > maxOrderLimit {
		limit = maxOrderLimit
	}
	orders, err := s.repos.Orders.List(ctx, repositories.OrderQuery{
		Cursor: in.Cursor,
		Search: in.Search,
		Limit:  limit,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}
