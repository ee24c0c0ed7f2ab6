package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:          http.StatusNotFound,
		KindInsufficientStock: http.StatusConflict,
		KindInvalidTransition: http.StatusBadRequest,
		KindValidation:        http.StatusBadRequest,
		KindUnauthorized:      http.StatusUnauthorized,
		KindForbidden:         http.StatusForbidden,
		KindConflict:          http.StatusConflict,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("create order: %w", NotFound("SKU not found: %s", "X"))

	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "SKU not found: X", From(err).Message)
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := Internal(cause)

	assert.Equal(t, "Internal Server Error", e.Message)
	assert.ErrorIs(t, e, cause)
}
