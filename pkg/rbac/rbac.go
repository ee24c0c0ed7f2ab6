// Package rbac decides which roles may use which routes. ADMIN satisfies
// every role requirement; any other role satisfies only its own.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/response"
)

const (
	Admin  = "ADMIN"
	Seller = "SELLER"
)

// Roles lists every assignable role.
var Roles = []string{Admin, Seller}

// Allows reports whether a user holding role may access a route that
// requires required.
func Allows(role, required string) bool {
	return role == Admin || role == required
}

// Valid reports whether role is assignable.
func Valid(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns middleware admitting users whose role satisfies required.
// middleware.Authenticate must run first.
func Require(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			if !Allows(role, required) {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
