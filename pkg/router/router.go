// Package router wraps chi with prefixed route groups and a table of named
// routes, read by route:list and by URL.
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

type Middleware func(http.Handler) http.Handler

// Route describes one registered endpoint.
type Route struct {
	Method string
	Path   string
	Name   string
}

type Router struct {
	mux  chi.Router
	root *Group

	mu    sync.RWMutex
	named map[string]string
	table []Route
}

// Group mounts routes under a shared prefix and middleware stack.
type Group struct {
	router *Router
	prefix string
	stack  []Middleware
}

func New() *Router {
	r := &Router{mux: chi.NewRouter(), named: map[string]string{}}
	r.root = &Group{router: r, prefix: "/"}
	return r
}

func (r *Router) Handler() http.Handler { return r.mux }

// Use adds global middleware. It must be called before any route is added.
func (r *Router) Use(middlewares ...Middleware) {
	for _, mw := range middlewares {
		r.mux.Use(mw)
	}
}

func (r *Router) Group(prefix string, middlewares ...Middleware) *Group {
	return r.root.Group(prefix, middlewares...)
}

func (r *Router) Get(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	r.root.Get(path, name, h, middlewares...)
}

func (r *Router) Post(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	r.root.Post(path, name, h, middlewares...)
}

// NotFound replaces chi's plain-text 404.
func (r *Router) NotFound(h http.HandlerFunc) { r.mux.NotFound(h) }

// MethodNotAllowed replaces chi's plain-text 405.
func (r *Router) MethodNotAllowed(h http.HandlerFunc) { r.mux.MethodNotAllowed(h) }

// URL fills the {params} of the named route.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	r.mu.RLock()
	path, ok := r.named[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("route %q not found", name)
	}
	for key, value := range params {
		path = strings.ReplaceAll(path, "{"+key+"}", value)
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("missing parameters for route %q", name)
	}
	return path, nil
}

// Routes returns every registered route sorted by path, then method.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	out := append([]Route(nil), r.table...)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func (g *Group) Group(prefix string, middlewares ...Middleware) *Group {
	return &Group{
		router: g.router,
		prefix: joinPath(g.prefix, prefix),
		stack:  g.with(middlewares),
	}
}

func (g *Group) Get(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	g.handle(http.MethodGet, path, name, h, middlewares)
}

func (g *Group) Post(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	g.handle(http.MethodPost, path, name, h, middlewares)
}

func (g *Group) Put(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	g.handle(http.MethodPut, path, name, h, middlewares)
}

func (g *Group) Patch(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	g.handle(http.MethodPatch, path, name, h, middlewares)
}

func (g *Group) Delete(path, name string, h http.HandlerFunc, middlewares ...Middleware) {
	g.handle(http.MethodDelete, path, name, h, middlewares)
}

func (g *Group) with(extra []Middleware) []Middleware {
	return append(append([]Middleware(nil), g.stack...), extra...)
}

func (g *Group) handle(method, path, name string, h http.HandlerFunc, extra []Middleware) {
	full := joinPath(g.prefix, path)
	stack := g.with(extra)

	var wrapped http.Handler = h
	for i := len(stack) - 1; i >= 0; i-- {
		wrapped = stack[i](wrapped)
	}
	g.router.mux.Method(method, full, wrapped)

	r := g.router
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = append(r.table, Route{Method: method, Path: full, Name: name})
	if name != "" {
		r.named[name] = full
	}
}

// joinPath joins path segments with single slashes and no trailing slash.
func joinPath(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.Trim(part, "/"); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return "/" + strings.Join(segments, "/")
}
