package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

// Index handles GET /v1/orders?cursor=&search=&limit=.
func (c *OrderController) Index(x *ctx.Context) {
	limit, ok := x.QueryInt("limit", 10)
	if !ok || limit < 1 || limit > 100 {
		x.ValidationError(map[string]string{"limit": "The limit must be an integer between 1 and 100."})
		return
	}
	orders, err := c.service.FindAll(x.Context(), services.OrderListInput{
		Cursor: x.Query("cursor"),
		Search: x.Query("search"),
		Limit:  limit,
	})
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(orders)
}

// Store handles POST /v1/orders.
func (c *OrderController) Store(x *ctx.Context) {
	var in services.CreateOrderInput
	if !x.BindJSON(&in) {
		return
	}
	order, err := c.service.CreateOrder(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(order)
}

// UpdateStatus handles PATCH /v1/orders/{id}/status.
func (c *OrderController) UpdateStatus(x *ctx.Context) {
	var in services.UpdateStatusInput
	if !x.BindJSON(&in) {
		return
	}
	order, err := c.service.UpdateStatus(x.Context(), x.Param("id"), in.Status)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(order)
}
