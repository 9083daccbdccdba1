package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/mail"
	"github.com/tribithub/portal/backend/internal/models"
)

const magicLinkSent = "登录链接已发送，请检查您的邮箱。"

// MagicLinkHandler mails passwordless sign-in links minted by the identity
// provider.
type MagicLinkHandler struct {
	links   identity.MagicLinker
	mailer  mail.Sender
	brand   string
	siteURL string
	ttl     time.Duration
}

func NewMagicLinkHandler(links identity.MagicLinker, mailer mail.Sender, brand, siteURL string, ttl time.Duration) *MagicLinkHandler {
	return &MagicLinkHandler{
		links:   links,
		mailer:  mailer,
		brand:   brand,
		siteURL: strings.TrimRight(siteURL, "/"),
		ttl:     ttl,
	}
}

// Send serves POST /api/auth/magic-link. Unknown emails get the same reply
// as known ones.
func (h *MagicLinkHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.MagicLinkRequest
	if err := httpx.Decode(r, &req, "邮箱不能为空"); err != nil {
		httpx.RespondError(w, r, err, "发送邮件时发生内部错误。")
		return
	}
	email := normalize(req.Email)

	link, err := h.links.MagicLink(r.Context(), email, h.siteURL+"/dashboard.html")
	if errors.Is(err, identity.ErrUserNotFound) {
		logger.Log.WithField("email", email).Info("Magic link requested for unknown email")
		httpx.WriteMessage(w, http.StatusOK, magicLinkSent)
		return
	}
	if err != nil {
		httpx.RespondError(w, r, err, "无法生成登录链接")
		return
	}

	if err := h.mailer.Send(r.Context(), mail.MagicLinkEmail(h.brand, email, link, h.siteURL, h.ttl)); err != nil {
		httpx.RespondError(w, r, err, "发送邮件时发生内部错误。")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, magicLinkSent)
}
