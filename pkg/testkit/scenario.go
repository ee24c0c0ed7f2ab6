// Package testkit drives REST API tests from JSON scenario files.
// Request and response bodies may live in separate files next to the
// scenario; keep them in a subdirectory so RunDir does not pick them up.
//
// A scenario file holds one scenario object or an array of them. Scenarios
// in one file run in order against the same handler, so later steps see
// what earlier steps created:
//
//	[
//	  {"name": "create", "requestMethod": "POST", "requestUrl": "/v1/products",
//	   "requestBody": {"name": "Mug"}, "expectedCode": 201},
//	  {"name": "missing", "requestUrl": "/v1/products/nope", "expectedCode": 404,
//	   "responseBody": {"message": "Product not found"}}
//	]
//
// Response bodies are matched as subsets: every expected key must be present
// with an equal value, extra keys in the response are ignored.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one request and its expected outcome.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"` // defaults to GET
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"` // relative to the scenario file
	RequestBody     json.RawMessage   `json:"requestBody"`     // inline alternative to RequestFileName
	Headers         map[string]string `json:"headers"`

	// ActingAs names a role; the runner asks its TokenSource for a bearer
	// token and sends it as Authorization.
	ActingAs string `json:"actingAs"`

	ExpectedCode     int             `json:"expectedCode"`
	ResponseFileName string          `json:"responseFileName"`
	ResponseBody     json.RawMessage `json:"responseBody"`

	dir string
}

// LoadScenarios reads path, which holds a single scenario or an array.
func LoadScenarios(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &scenarios)
	} else {
		var s Scenario
		err = json.Unmarshal(data, &s)
		scenarios = []*Scenario{&s}
	}
	if err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	for i, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: %s[%d]: %w", filepath.Base(abs), i, err)
		}
		s.dir = filepath.Dir(abs)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("name is required")
	case s.RequestURL == "":
		return fmt.Errorf("%s: requestUrl is required", s.Name)
	case s.ExpectedCode == 0:
		return fmt.Errorf("%s: expectedCode is required", s.Name)
	case s.RequestFileName != "" && len(s.RequestBody) > 0:
		return fmt.Errorf("%s: set requestFileName or requestBody, not both", s.Name)
	case s.ResponseFileName != "" && len(s.ResponseBody) > 0:
		return fmt.Errorf("%s: set responseFileName or responseBody, not both", s.Name)
	}
	return nil
}

// requestBody returns the body to send, or nil.
func (s *Scenario) requestBody() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if s.RequestFileName == "" {
		return nil, nil
	}
	return os.ReadFile(filepath.Join(s.dir, s.RequestFileName))
}

// expectedBody returns the expected response subset, or nil.
func (s *Scenario) expectedBody() ([]byte, error) {
	if len(s.ResponseBody) > 0 {
		return s.ResponseBody, nil
	}
	if s.ResponseFileName == "" {
		return nil, nil
	}
	return os.ReadFile(filepath.Join(s.dir, s.ResponseFileName))
}
