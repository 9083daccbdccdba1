package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tribithub/portal/backend/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads a JSON body into v and runs its `validate` tags. Either
// failure is reported as a validation error; invalidMsg is the public
// message for a body that decodes but fails validation.
func Decode(r *http.Request, v any, invalidMsg string) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.New(apperr.ErrValidation, "请求体格式无效")
	}
	if err := validate.Struct(v); err != nil {
		return apperr.New(apperr.ErrValidation, invalidMsg)
	}
	return nil
}
