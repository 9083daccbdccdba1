// Package auth serves account registration, password reset and login.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/middleware"
	"github.com/tribithub/portal/backend/internal/models"
)

// ProfileStore defines the profile persistence the handlers need.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// Codes issues and consumes verification codes.
type Codes interface {
	Issue(ctx context.Context, email string, purpose models.CodePurpose) (bool, error)
	Consume(ctx context.Context, email string, purpose models.CodePurpose, code string, apply func(ctx context.Context) error) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    identity.Provider
	profiles ProfileStore
	codes    Codes
}

func NewHandler(users identity.Provider, profiles ProfileStore, codes Codes) *Handler {
	return &Handler{users: users, profiles: profiles, codes: codes}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendCode mails a signup code.
func (h *Handler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req models.SendCodeRequest
	if err := httpx.Decode(r, &req, "邮箱和用户名为必填项"); err != nil {
		httpx.RespondError(w, r, err, "发送验证码失败")
		return
	}

	if _, err := h.codes.Issue(r.Context(), req.Email, models.PurposeSignup); err != nil {
		httpx.RespondError(w, r, err, "发送验证码失败")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "验证码已成功发送至您的邮箱！")
}

// Register consumes a signup code and creates the account and its profile.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httpx.Decode(r, &req, "所有字段均为必填项"); err != nil {
		httpx.RespondError(w, r, err, "注册失败")
		return
	}
	email := normalize(req.Email)

	err := h.codes.Consume(r.Context(), email, models.PurposeSignup, req.Code, func(ctx context.Context) error {
		ident, err := h.users.CreateUser(ctx, email, req.Password, req.Username)
		if err != nil {
			if errors.Is(err, identity.ErrUserExists) {
				return apperr.New(apperr.ErrDuplicateAccount, "该邮箱已被注册")
			}
			return err
		}
		return h.profiles.Create(ctx, &models.Profile{ID: ident.ID, Username: req.Username, Role: models.RoleUser})
	})
	if err != nil {
		httpx.RespondError(w, r, err, "注册失败")
		return
	}

	logger.Log.WithField("email", email).Info("Account registered")
	httpx.WriteMessage(w, http.StatusOK, "注册成功！")
}

// SendResetCode mails a password-reset code when the email has an account.
// The reply is the same either way.
func (h *Handler) SendResetCode(w http.ResponseWriter, r *http.Request) {
	var req models.SendResetCodeRequest
	if err := httpx.Decode(r, &req, "邮箱不能为空"); err != nil {
		httpx.RespondError(w, r, err, "发送验证码失败")
		return
	}

	if _, err := h.codes.Issue(r.Context(), req.Email, models.PurposePasswordReset); err != nil {
		httpx.RespondError(w, r, err, "发送验证码失败")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "如果您的邮箱已注册，您将会收到一封包含验证码的邮件。")
}

// ResetPassword consumes a reset code and sets the new password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := httpx.Decode(r, &req, "所有字段均为必填项"); err != nil {
		httpx.RespondError(w, r, err, "密码重置失败")
		return
	}
	email := normalize(req.Email)

	err := h.codes.Consume(r.Context(), email, models.PurposePasswordReset, req.Code, func(ctx context.Context) error {
		return h.users.UpdatePassword(ctx, email, req.NewPassword)
	})
	if err != nil {
		httpx.RespondError(w, r, err, "密码重置失败")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "密码重置成功！您现在可以使用新密码登录了。")
}

type loginResponse struct {
	Message string          `json:"message"`
	Session *models.Session `json:"session"`
}

type adminLoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

func (h *Handler) signIn(r *http.Request, req models.LoginRequest) (*models.Session, error) {
	sess, err := h.users.SignIn(r.Context(), normalize(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, apperr.New(apperr.ErrUnauthenticated, "邮箱或密码不正确")
		}
		return nil, err
	}
	return sess, nil
}

// LoginPassword authenticates any account and returns its session.
func (h *Handler) LoginPassword(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.Decode(r, &req, "邮箱和密码不能为空"); err != nil {
		httpx.RespondError(w, r, err, "服务器内部错误")
		return
	}

	sess, err := h.signIn(r, req)
	if err != nil {
		httpx.RespondError(w, r, err, "服务器内部错误")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{Message: "登录成功", Session: sess})
}

// AdminLogin authenticates an account and hands back its access token only
// when the account has the admin role.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.Decode(r, &req, "邮箱和密码不能为空"); err != nil {
		httpx.RespondError(w, r, err, "管理员登录失败")
		return
	}

	sess, err := h.signIn(r, req)
	if err != nil {
		httpx.RespondError(w, r, err, "管理员登录失败")
		return
	}
	if sess.User == nil {
		httpx.RespondError(w, r, errors.New("sign-in returned no user"), "管理员登录失败")
		return
	}
	if err := middleware.CheckAdmin(r.Context(), h.profiles, sess.User.ID); err != nil {
		// the session just minted must not outlive a refused admin login
		if serr := h.users.SignOut(r.Context(), sess.AccessToken); serr != nil {
			logger.Log.WithError(serr).Warn("revoke refused admin session")
		}
		httpx.RespondError(w, r, err, "管理员登录失败")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, adminLoginResponse{Message: "管理员登录成功", AccessToken: sess.AccessToken})
}

// Logout revokes the caller's access token. It runs behind RequireUser.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFrom(r.Context())
	if err := h.users.SignOut(r.Context(), token); err != nil && !errors.Is(err, identity.ErrInvalidToken) {
		httpx.RespondError(w, r, err, "退出登录失败")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "已退出登录")
}
