package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// TokenSource returns a bearer token for role.
type TokenSource func(t *testing.T, role string) string

// Option configures a run.
type Option func(*runner)

// WithTokens resolves Scenario.ActingAs.
func WithTokens(src TokenSource) Option {
	return func(r *runner) { r.tokens = src }
}

type runner struct {
	handler http.Handler
	tokens  TokenSource
}

// Run executes every scenario in path as a subtest, in order.
func Run(t *testing.T, handler http.Handler, path string, opts ...Option) {
	t.Helper()
	r := newRunner(handler, opts)

	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatal(err)
	}
	r.runAll(t, scenarios)
}

// RunDir runs every *.json file in dir, one subtest per file.
func RunDir(t *testing.T, handler http.Handler, dir string, opts ...Option) {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("testkit: no scenario files in %q", dir)
	}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		t.Run(name, func(t *testing.T) {
			Run(t, handler, path, opts...)
		})
	}
}

func newRunner(handler http.Handler, opts []Option) *runner {
	r := &runner{handler: handler}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *runner) runAll(t *testing.T, scenarios []*Scenario) {
	for _, s := range scenarios {
		// A failed step leaves later steps without their preconditions.
		if !t.Run(s.Name, func(t *testing.T) { r.run(t, s) }) {
			return
		}
	}
}

func (r *runner) run(t *testing.T, s *Scenario) {
	t.Helper()

	body, err := s.requestBody()
	if err != nil {
		t.Fatalf("[%s] request body: %v", s.Name, err)
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	method := strings.ToUpper(s.RequestMethod)
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, s.RequestURL, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.ActingAs != "" {
		if r.tokens == nil {
			t.Fatalf("[%s] actingAs %q needs testkit.WithTokens", s.Name, s.ActingAs)
		}
		req.Header.Set("Authorization", "Bearer "+r.tokens(t, s.ActingAs))
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	expected, err := s.expectedBody()
	if err != nil {
		t.Fatalf("[%s] response body: %v", s.Name, err)
	}
	if expected != nil {
		AssertJSONSubset(t, s, expected, rec.Body.Bytes())
	}
}
