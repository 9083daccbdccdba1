package ticket

import (
	"net/http"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/middleware"
	"github.com/tribithub/portal/backend/internal/models"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type submitResponse struct {
	Message string         `json:"message"`
	Ticket  *models.Ticket `json:"ticket"`
}

// Submit runs behind middleware.RequireUser.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.RespondError(w, r, apperr.ErrUnauthenticated, "服务器内部错误")
		return
	}

	var req models.SubmitTicketRequest
	if err := httpx.Decode(r, &req, "主题和内容不能为空"); err != nil {
		httpx.RespondError(w, r, err, "服务器内部错误")
		return
	}

	t, err := h.svc.Submit(r.Context(), owner, req.Subject, req.Message)
	if err != nil {
		httpx.RespondError(w, r, err, "服务器内部错误")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, submitResponse{Message: "工单提交成功！", Ticket: t})
}

// List runs behind middleware.RequireAdmin.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.List(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err, "获取工单数据失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}
