package controllers

import (
	"strings"

	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/ws"
)

type StockFeedController struct {
	hub *ws.Hub
}

func NewStockFeedController(hub *ws.Hub) *StockFeedController {
	return &StockFeedController{hub: hub}
}

// Subscribe handles GET /v1/ws/stock?sku=A,B. Without sku the client
// receives every stock change.
func (c *StockFeedController) Subscribe(x *ctx.Context) {
	var skus []string
	if raw := x.Query("sku"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			skus = append(skus, strings.TrimSpace(s))
		}
	}
	if err := ws.Upgrade(x.W, x.R, c.hub, skus...); err != nil {
		// The upgrader has already written the HTTP error.
		logger.WithCtx(x.Context()).Warn("stock feed upgrade failed", "error", err)
	}
}
