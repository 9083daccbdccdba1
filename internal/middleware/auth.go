package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/models"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	tokenKey
)

// ProfileReader looks up the role-bearing profile of an identity.
type ProfileReader interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// IdentityFrom returns the identity attached by RequireUser or RequireAdmin.
func IdentityFrom(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*models.Identity)
	return id, ok && id != nil
}

// TokenFrom returns the bearer token the request was authenticated with.
func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

// WithIdentity attaches ident and its token to ctx.
func WithIdentity(ctx context.Context, ident *models.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, ident)
	return context.WithValue(ctx, tokenKey, token)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

func authenticate(r *http.Request, users identity.Provider) (*models.Identity, string, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, "", apperr.New(apperr.ErrUnauthenticated, "未提供认证令牌")
	}
	ident, err := users.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, "", apperr.New(apperr.ErrUnauthenticated, "无效的令牌")
		}
		return nil, "", err
	}
	return ident, token, nil
}

// RequireUser rejects requests whose bearer token does not resolve to an
// identity and otherwise attaches that identity to the request context.
func RequireUser(users identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, token, err := authenticate(r, users)
			if err != nil {
				httpx.RespondError(w, r, err, "服务器内部错误")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident, token)))
		})
	}
}

// RequireAdmin is RequireUser plus a check that the identity has a profile
// with the admin role.
func RequireAdmin(users identity.Provider, profiles ProfileReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, token, err := authenticate(r, users)
			if err != nil {
				httpx.RespondError(w, r, err, "服务器内部错误")
				return
			}
			if err := CheckAdmin(r.Context(), profiles, ident.ID); err != nil {
				httpx.RespondError(w, r, err, "服务器内部错误")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident, token)))
		})
	}
}

// CheckAdmin returns a Forbidden error unless userID has an admin profile.
func CheckAdmin(ctx context.Context, profiles ProfileReader, userID string) error {
	p, err := profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrForbidden, "权限不足")
		}
		return err
	}
	if p.Role != models.RoleAdmin {
		return apperr.New(apperr.ErrForbidden, "权限不足")
	}
	return nil
}
