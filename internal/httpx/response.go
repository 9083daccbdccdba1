package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/logger"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

var defaultMessages = map[string]string{
	"validation_error":        "请求参数无效",
	"unauthorized":            "未提供有效的认证令牌",
	"forbidden":               "权限不足",
	"not_found":               "资源未找到",
	"duplicate_account":       "该邮箱已被注册",
	"invalid_or_expired_code": "验证码无效或已过期",
	"conflict":                "资源冲突",
	"rate_limit_exceeded":     "请求过于频繁，请稍后再试",
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// RespondError maps err onto the error taxonomy. Unknown errors are logged
// and the caller only sees fallback.
func RespondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, code, known := apperr.Classify(err)
	msg := fallback
	if known {
		if m, ok := apperr.PublicMessage(err); ok {
			msg = m
		} else {
			msg = defaultMessages[code]
		}
	} else {
		logger.Log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error(fallback)
	}
	WriteJSON(w, status, ErrorResponse{Code: code, Error: msg})
}
