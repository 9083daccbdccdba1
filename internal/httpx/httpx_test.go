package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribithub/portal/backend/internal/apperr"
)

type signupBody struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
}

func TestDecode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","username":"amy"}`))
		var body signupBody
		require.NoError(t, Decode(r, &body, "missing"))
		assert.Equal(t, "amy", body.Username)
	})

	t.Run("malformed json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		var body signupBody
		err := Decode(r, &body, "missing")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("failed validation uses message", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`))
		var body signupBody
		err := Decode(r, &body, "邮箱和用户名为必填项")
		require.ErrorIs(t, err, apperr.ErrValidation)
		msg, _ := apperr.PublicMessage(err)
		assert.Equal(t, "邮箱和用户名为必填项", msg)
	})
}

func TestRespondError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	t.Run("known kind uses default message", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, r, apperr.ErrForbidden, "fallback")
		assert.Equal(t, http.StatusForbidden, w.Code)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "forbidden", body.Code)
		assert.Equal(t, "权限不足", body.Error)
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, r, errors.New("connection refused"), "服务器内部错误")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, apperr.CodeInternal, body.Code)
		assert.Equal(t, "服务器内部错误", body.Error)
	})
}
