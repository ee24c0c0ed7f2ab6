// Package controllers adapts HTTP requests to service calls.
package controllers

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register handles POST /v1/auth/register.
func (c *AuthController) Register(x *ctx.Context) {
	var in services.RegisterInput
	if !x.BindJSON(&in) {
		return
	}
	user, err := c.service.Register(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(user)
}

// Login handles POST /v1/auth/login.
func (c *AuthController) Login(x *ctx.Context) {
	var in services.LoginInput
	if !x.BindJSON(&in) {
		return
	}
	user, err := c.service.Validate(x.Context(), in.Email, in.Password)
	if err != nil {
		x.Fail(err)
		return
	}
	if user == nil {
		x.Unauthorized("Invalid credentials")
		return
	}
	tokens, err := c.service.Login(x.Context(), user)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(tokens)
}

// Refresh handles POST /v1/auth/refresh.
func (c *AuthController) Refresh(x *ctx.Context) {
	var in services.RefreshInput
	if !x.BindJSON(&in) {
		return
	}
	if strings.TrimSpace(in.RefreshToken) == "" {
		x.Error(http.StatusBadRequest, "Refresh token required")
		return
	}
	tokens, err := c.service.Refresh(x.Context(), in.RefreshToken)
	if err != nil {
		x.Fail(err)
		return
	}
	if tokens == nil {
		x.Unauthorized("Invalid refresh token")
		return
	}
	x.Success(tokens)
}
