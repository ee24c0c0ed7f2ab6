// Package response writes JSON bodies. Resources are written as-is; errors
// are written as {"message": ...} with optional field details.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Page is the JSON shape of a paginated list.
type Page struct {
	Data interface{} `json:"data"`
	Meta orm.Meta    `json:"meta"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Success sends a 200 with data as the body.
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 with data as the body.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Error sends {"message": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}

// ValidationError sends a 400 with field-level details.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusBadRequest, ErrorBody{Message: "Validation error", Details: errs})
}

// Paginated sends a 200 {data, meta} body.
func Paginated(w http.ResponseWriter, data interface{}, meta orm.Meta) {
	JSON(w, http.StatusOK, Page{Data: data, Meta: meta})
}

// Fail maps err to its HTTP status. Internal errors are logged with the
// request's logger and reported without detail.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		logger.WithCtx(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	JSON(w, e.Kind.Status(), ErrorBody{Message: e.Message, Details: e.Details})
}

func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}
