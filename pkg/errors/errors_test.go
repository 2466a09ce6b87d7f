package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
		kind string
	}{
		{"not found", NotFound("patient not found", nil), http.StatusNotFound, "NOT_FOUND"},
		{"bad request", BadRequest("invalid body", nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"unauthorized", Unauthorized("invalid token"), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"forbidden", Forbidden("no access"), http.StatusForbidden, "FORBIDDEN"},
		{"conflict", Conflict("already pending"), http.StatusConflict, "CONFLICT"},
		{"internal", Internal(fmt.Errorf("boom")), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
			assert.Equal(t, tt.kind, tt.err.Kind())
		})
	}
}

func TestIsAndAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to grant access: %w", Conflict("Access request is not pending."))

	assert.True(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, "Access request is not pending.", As(wrapped).Message)
	assert.Nil(t, As(fmt.Errorf("plain")))
}

func TestErrorIncludesCause(t *testing.T) {
	err := NotFound("doctor not found", fmt.Errorf("sql: no rows"))
	assert.Equal(t, "doctor not found: sql: no rows", err.Error())
}
