package wiki

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/models"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.ErrValidation, "无效的 ID")
	}
	return id, nil
}

// Index serves GET /api/wiki/list and /api/wiki/content.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	idx, err := h.svc.Index(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err, "获取 Wiki 列表失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, idx)
}

// Article serves GET /api/wiki/article/{slug}.
func (h *Handler) Article(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.ArticleBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, r, err, "获取文章失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err, "获取分类列表失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cats)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if err := httpx.Decode(r, &in, "分类名称不能为空"); err != nil {
		httpx.RespondError(w, r, err, "创建分类失败")
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, err, "创建分类失败")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err == nil {
		err = h.svc.DeleteCategory(r.Context(), id)
	}
	if err != nil {
		httpx.RespondError(w, r, err, "删除失败")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListArticles(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err, "获取文章列表失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, r, err, "获取文章失败")
		return
	}
	a, err := h.svc.GetArticle(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err, "获取文章失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var in models.ArticleInput
	if err := httpx.Decode(r, &in, "标题和 Slug 不能为空"); err != nil {
		httpx.RespondError(w, r, err, "创建文章失败")
		return
	}
	a, err := h.svc.CreateArticle(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, err, "创建文章失败")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, r, err, "更新文章失败")
		return
	}
	var in models.ArticleInput
	if err := httpx.Decode(r, &in, "标题和 Slug 不能为空"); err != nil {
		httpx.RespondError(w, r, err, "更新文章失败")
		return
	}
	a, err := h.svc.UpdateArticle(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, r, err, "更新文章失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err == nil {
		err = h.svc.DeleteArticle(r.Context(), id)
	}
	if err != nil {
		httpx.RespondError(w, r, err, "删除文章失败")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
