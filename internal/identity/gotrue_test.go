package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	amyID = "3f1c1d2e-7a4b-4c8e-9f00-1a2b3c4d5e6f"
	bobID = "6b8a0c1d-2e3f-4a5b-8c7d-9e0f1a2b3c4d"
)

func newGoTrueServer(t *testing.T, mux *http.ServeMux) *GoTrueClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewGoTrueClient(srv.URL, "service-key")
}

func TestGoTrueFindUserByEmailPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, strconv.Itoa(listPageSize), r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		users := []map[string]any{}
		if page == 1 {
			for i := 0; i < listPageSize; i++ {
				users = append(users, map[string]any{"id": uuid.NewString(), "email": "u" + strconv.Itoa(i) + "@x.io"})
			}
		} else {
			users = append(users, map[string]any{
				"id": amyID, "email": "Amy@X.io",
				"user_metadata": map[string]any{"username": "amy"},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"users": users})
	})
	c := newGoTrueServer(t, mux)

	u, err := c.FindUserByEmail(context.Background(), "amy@x.io")
	require.NoError(t, err)
	assert.Equal(t, amyID, u.ID)
	assert.Equal(t, "amy", u.Username)

	_, err = c.FindUserByEmail(context.Background(), "nobody@x.io")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGoTrueListUsersKeepsRequestedIDs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{
			{"id": amyID, "email": "amy@x.io"},
			{"id": bobID, "email": "bob@x.io"},
		}})
	})
	c := newGoTrueServer(t, mux)

	users, err := c.ListUsers(context.Background(), []string{bobID, "missing"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@x.io", users[0].Email)
}

func TestGoTrueCreateUserDuplicate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["email_confirm"])
		assert.Equal(t, "pw", body["password"])
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"msg":"A user with this email address has already been registered"}`))
	})
	c := newGoTrueServer(t, mux)

	_, err := c.CreateUser(context.Background(), "amy@x.io", "pw", "amy")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestGoTrueUpdatePassword(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{{"id": amyID, "email": "amy@x.io"}}})
	})
	mux.HandleFunc("/auth/v1/admin/users/"+amyID, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": amyID, "email": "amy@x.io"})
	})
	c := newGoTrueServer(t, mux)

	require.NoError(t, c.UpdatePassword(context.Background(), "amy@x.io", "new-pw"))
	assert.Equal(t, "new-pw", got["password"])

	assert.ErrorIs(t, c.UpdatePassword(context.Background(), "nobody@x.io", "pw"), ErrUserNotFound)
}

func TestGoTrueSignIn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at", "token_type": "bearer", "expires_in": 3600, "refresh_token": "rt",
			"user": map[string]any{"id": amyID, "email": "amy@x.io"},
		})
	})
	c := newGoTrueServer(t, mux)

	s, err := c.SignIn(context.Background(), "amy@x.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, 3600, s.ExpiresIn)
	assert.Equal(t, amyID, s.User.ID)

	_, err = c.SignIn(context.Background(), "amy@x.io", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGoTrueResolve(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": amyID, "email": "amy@x.io"})
	})
	c := newGoTrueServer(t, mux)

	u, err := c.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, amyID, u.ID)

	_, err = c.Resolve(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGoTrueResolveOnlyRejectsOnAuthStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadRequest, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})
			c := newGoTrueServer(t, mux)

			_, err := c.Resolve(context.Background(), "any")
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrInvalidToken)
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := newGoTrueServer(t, mux).Resolve(context.Background(), "any")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGoTrueSignOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := newGoTrueServer(t, mux)

	require.NoError(t, c.SignOut(context.Background(), "good"))
	assert.ErrorIs(t, c.SignOut(context.Background(), "bad"), ErrInvalidToken)
}

func TestGoTrueMagicLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/admin/generate_link", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "magiclink", body["type"])
		assert.Equal(t, "https://portal.example.com/dashboard.html", body["redirect_to"])
		if body["email"] != "amy@x.io" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"msg":"User with this email not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": amyID, "email": "amy@x.io",
			"action_link": "https://auth.example.com/verify?token=t&type=magiclink",
		})
	})
	c := newGoTrueServer(t, mux)

	link, err := c.MagicLink(context.Background(), "amy@x.io", "https://portal.example.com/dashboard.html")
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/verify?token=t&type=magiclink", link)

	_, err = c.MagicLink(context.Background(), "nobody@x.io", "https://portal.example.com/dashboard.html")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGoTrueCallHonoursContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached the server")
	})
	c := newGoTrueServer(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Resolve(ctx, "good")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}
