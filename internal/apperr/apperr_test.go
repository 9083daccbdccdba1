package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		known  bool
	}{
		{"validation", fmt.Errorf("%w: subject is required", ErrValidation), http.StatusBadRequest, "validation_error", true},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, "unauthorized", true},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden", true},
		{"not found", fmt.Errorf("article x: %w", ErrNotFound), http.StatusNotFound, "not_found", true},
		{"duplicate", ErrDuplicateAccount, http.StatusBadRequest, "duplicate_account", true},
		{"code", ErrInvalidCode, http.StatusBadRequest, "invalid_or_expired_code", true},
		{"conflict", ErrConflict, http.StatusConflict, "conflict", true},
		{"rate", ErrRateLimited, http.StatusTooManyRequests, "rate_limit_exceeded", true},
		{"other", errors.New("db down"), http.StatusInternalServerError, CodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, ok := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestNewCarriesMessage(t *testing.T) {
	err := New(ErrValidation, "主题和内容不能为空")
	assert.ErrorIs(t, err, ErrValidation)

	msg, ok := PublicMessage(fmt.Errorf("submit: %w", err))
	assert.True(t, ok)
	assert.Equal(t, "主题和内容不能为空", msg)

	_, ok = PublicMessage(ErrValidation)
	assert.False(t, ok)
}
