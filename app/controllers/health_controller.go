package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

type HealthController struct {
	probes map[string]Probe
}

func NewHealthController(probes map[string]Probe) *HealthController {
	return &HealthController{probes: probes}
}

// Check handles GET /healthz. Every probe must pass within two seconds for
// a 200; otherwise the failing checks are listed with a 503.
func (c *HealthController) Check(x *ctx.Context) {
	cctx, cancel := context.WithTimeout(x.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := c.probes[name](cctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	x.JSON(code, map[string]interface{}{"status": status, "checks": checks})
}
