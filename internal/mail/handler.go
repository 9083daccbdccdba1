package mail

import (
	"net/http"
	"strconv"

	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Handler exposes the delivery log to admins.
type Handler struct {
	log DeliveryLog
}

func NewHandler(log DeliveryLog) *Handler {
	return &Handler{log: log}
}

// List returns the newest deliveries, ?limit=N (default 50, max 500).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultListLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{Code: "validation_error", Error: "limit 必须为正整数"})
			return
		}
		limit = min(n, maxListLimit)
	}

	items, err := h.log.ListRecent(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, r, err, "获取邮件记录失败")
		return
	}
	if items == nil {
		items = []models.Delivery{}
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}
