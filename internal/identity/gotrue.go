package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	authgo "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"

	"github.com/tribithub/portal/backend/internal/models"
)

const listPageSize = 1000

// GoTrueClient calls a hosted Supabase-compatible auth service, authenticating
// admin calls with the service key.
type GoTrueClient struct {
	api        authgo.Client
	serviceKey string
	transport  http.RoundTripper
	timeout    time.Duration
}

func NewGoTrueClient(baseURL, serviceKey string) *GoTrueClient {
	return &GoTrueClient{
		api:        authgo.New("", serviceKey).WithCustomAuthURL(strings.TrimRight(baseURL, "/") + "/auth/v1"),
		serviceKey: serviceKey,
		transport:  http.DefaultTransport,
		timeout:    15 * time.Second,
	}
}

// exchange binds one library call to ctx and remembers the reply status,
// since the library reports non-2xx replies as plain errors.
type exchange struct {
	ctx    context.Context
	base   http.RoundTripper
	query  url.Values
	status int
}

func (e *exchange) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.WithContext(e.ctx)
	if len(e.query) > 0 {
		u := *req.URL
		q := u.Query()
		for k, v := range e.query {
			q[k] = v
		}
		u.RawQuery = q.Encode()
		req.URL = &u
	}
	resp, err := e.base.RoundTrip(req)
	if resp != nil {
		e.status = resp.StatusCode
	}
	return resp, err
}

func (c *GoTrueClient) call(ctx context.Context, token string, query url.Values) (authgo.Client, *exchange) {
	ex := &exchange{ctx: ctx, base: c.transport, query: query}
	return c.api.WithToken(token).WithClient(http.Client{Transport: ex, Timeout: c.timeout}), ex
}

func toIdentity(u types.User) models.Identity {
	id := models.Identity{ID: u.ID.String(), Email: u.Email, CreatedAt: u.CreatedAt}
	if name, ok := u.UserMetadata["username"].(string); ok {
		id.Username = name
	}
	return id
}

// listAll pages through /admin/users until a short page comes back.
func (c *GoTrueClient) listAll(ctx context.Context, keep func(types.User) bool) ([]models.Identity, error) {
	var out []models.Identity
	for page := 1; ; page++ {
		api, _ := c.call(ctx, c.serviceKey, url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(listPageSize)},
		})
		resp, err := api.AdminListUsers()
		if err != nil {
			return nil, fmt.Errorf("gotrue list users: %w", err)
		}
		for _, u := range resp.Users {
			if keep(u) {
				out = append(out, toIdentity(u))
			}
		}
		if len(resp.Users) < listPageSize {
			return out, nil
		}
	}
}

func (c *GoTrueClient) FindUserByEmail(ctx context.Context, email string) (*models.Identity, error) {
	users, err := c.listAll(ctx, func(u types.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

func (c *GoTrueClient) ListUsers(ctx context.Context, ids []string) ([]models.Identity, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return c.listAll(ctx, func(u types.User) bool {
		_, ok := want[u.ID.String()]
		return ok
	})
}

func (c *GoTrueClient) CreateUser(ctx context.Context, email, password, username string) (*models.Identity, error) {
	api, ex := c.call(ctx, c.serviceKey, nil)
	resp, err := api.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        email,
		Password:     &password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"username": username},
	})
	if err != nil {
		if ex.status == http.StatusUnprocessableEntity || ex.status == http.StatusConflict {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("gotrue create user: %w", err)
	}
	id := toIdentity(resp.User)
	return &id, nil
}

func (c *GoTrueClient) UpdatePassword(ctx context.Context, email, password string) error {
	u, err := c.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	uid, err := uuid.Parse(u.ID)
	if err != nil {
		return fmt.Errorf("gotrue user id %q: %w", u.ID, err)
	}
	api, _ := c.call(ctx, c.serviceKey, nil)
	if _, err := api.AdminUpdateUser(types.AdminUpdateUserRequest{UserID: uid, Password: password}); err != nil {
		return fmt.Errorf("gotrue update user: %w", err)
	}
	return nil
}

func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	api, ex := c.call(ctx, c.serviceKey, nil)
	resp, err := api.Token(types.TokenRequest{GrantType: "password", Email: email, Password: password})
	if err != nil {
		if ex.status == http.StatusBadRequest || ex.status == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("gotrue token: %w", err)
	}
	user := toIdentity(resp.User)
	return &models.Session{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    int(resp.ExpiresIn),
		RefreshToken: resp.RefreshToken,
		User:         &user,
	}, nil
}

// tokenRejected reports whether the provider refused the caller's token.
func tokenRejected(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func (c *GoTrueClient) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	api, ex := c.call(ctx, token, nil)
	resp, err := api.GetUser()
	if err != nil {
		if tokenRejected(ex.status) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("gotrue get user: %w", err)
	}
	if resp.ID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	id := toIdentity(resp.User)
	return &id, nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, token string) error {
	api, ex := c.call(ctx, token, nil)
	if err := api.Logout(); err != nil {
		if tokenRejected(ex.status) {
			return ErrInvalidToken
		}
		return fmt.Errorf("gotrue logout: %w", err)
	}
	return nil
}

// MagicLink asks the provider for a one-time sign-in link for email that
// lands on redirectTo. The provider does not mail it.
func (c *GoTrueClient) MagicLink(ctx context.Context, email, redirectTo string) (string, error) {
	api, ex := c.call(ctx, c.serviceKey, nil)
	resp, err := api.AdminGenerateLink(types.AdminGenerateLinkRequest{
		Type:       types.LinkTypeMagicLink,
		Email:      email,
		RedirectTo: redirectTo,
	})
	if err != nil {
		if ex.status == http.StatusNotFound {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("gotrue generate link: %w", err)
	}
	if resp.ActionLink == "" {
		return "", fmt.Errorf("gotrue generate link: empty action link")
	}
	return resp.ActionLink, nil
}
