package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type WebhookController struct {
	service *services.WebhookService
}

func NewWebhookController(service *services.WebhookService) *WebhookController {
	return &WebhookController{service: service}
}

// Store handles POST /v1/webhooks.
func (c *WebhookController) Store(x *ctx.Context) {
	var in services.CreateWebhookInput
	if !x.BindJSON(&in) {
		return
	}
	sub, err := c.service.Create(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(sub)
}
