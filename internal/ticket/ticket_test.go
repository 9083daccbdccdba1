package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/identity/identitytest"
	"github.com/tribithub/portal/backend/internal/mail/mailtest"
	"github.com/tribithub/portal/backend/internal/middleware"
	"github.com/tribithub/portal/backend/internal/models"
)

type memTickets struct {
	mu     sync.Mutex
	rows   []models.Ticket
	nextID int64
	clock  time.Time
}

func (m *memTickets) Create(_ context.Context, t *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	t.ID = m.nextID
	t.SubmittedAt = m.clock
	m.rows = append(m.rows, *t)
	return nil
}

func (m *memTickets) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.rows {
		if t.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memTickets) ListAll(_ context.Context) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Ticket{}, m.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

type memProfiles map[string]models.Profile

func (m memProfiles) ListByIDs(_ context.Context, ids []string) ([]models.Profile, error) {
	var out []models.Profile
	for _, id := range ids {
		if p, ok := m[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func strp(s string) *string { return &s }

type fixture struct {
	svc     *Service
	tickets *memTickets
	users   *identitytest.Provider
	mail    *mailtest.Recorder
}

func newFixture(profiles memProfiles) *fixture {
	f := &fixture{
		tickets: &memTickets{clock: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		users:   identitytest.New(),
		mail:    &mailtest.Recorder{},
	}
	f.svc = NewService(f.tickets, f.users, profiles, f.mail, "TribitHub")
	return f
}

func TestSubmit(t *testing.T) {
	f := newFixture(nil)
	owner := f.users.AddUser("u1", "amy@x.io", "amy", "pw")

	tk, err := f.svc.Submit(context.Background(), &owner, "Login issue", "Cannot log in")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tk.ID)
	require.NotNil(t, tk.UserID)
	assert.Equal(t, "u1", *tk.UserID)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "amy@x.io", sent[0].To)
	assert.Equal(t, "您的工单 #1 已收到", sent[0].Subject)
}

func TestSubmitRequiresSubjectAndMessage(t *testing.T) {
	f := newFixture(nil)
	owner := f.users.AddUser("u1", "amy@x.io", "amy", "pw")

	_, err := f.svc.Submit(context.Background(), &owner, "", "body")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Submit(context.Background(), &owner, "subject", "  ")
	require.ErrorIs(t, err, apperr.ErrValidation)

	assert.Empty(t, f.tickets.rows)
	assert.Empty(t, f.mail.Sent())
}

func TestSubmitMailFailureRemovesTicket(t *testing.T) {
	f := newFixture(nil)
	owner := f.users.AddUser("u1", "amy@x.io", "amy", "pw")
	f.mail.Err = errors.New("provider down")

	_, err := f.svc.Submit(context.Background(), &owner, "s", "m")
	require.Error(t, err)
	status, _, _ := apperr.Classify(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Empty(t, f.tickets.rows)
}

func TestJoinOwners(t *testing.T) {
	tickets := []models.Ticket{
		{ID: 1, UserID: nil},
		{ID: 2, UserID: strp("missing")},
		{ID: 3, UserID: strp("noprofile")},
		{ID: 4, UserID: strp("full")},
		{ID: 5, UserID: strp("noemail")},
	}
	idents := []models.Identity{
		{ID: "noprofile", Email: "np@x.io"},
		{ID: "full", Email: "full@x.io"},
		{ID: "noemail"},
	}
	profiles := []models.Profile{
		{ID: "full", Username: "amy"},
		{ID: "noemail", Username: "bob"},
	}

	got := JoinOwners(tickets, idents, profiles)
	require.Len(t, got, 5)

	want := []struct{ name, email string }{
		{"匿名用户", "N/A"},
		{"匿名用户", "N/A"},
		{"未知用户", "np@x.io"},
		{"amy", "full@x.io"},
		{"bob", "N/A"},
	}
	for i, w := range want {
		assert.Equal(t, tickets[i].ID, got[i].ID)
		assert.Equal(t, w.name, got[i].Name, "ticket %d", got[i].ID)
		assert.Equal(t, w.email, got[i].Email, "ticket %d", got[i].ID)
	}
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(memProfiles{"u1": {ID: "u1", Username: "amy"}})
	owner := f.users.AddUser("u1", "amy@x.io", "amy", "pw")
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, &owner, "first", "m")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, &owner, "second", "m")
	require.NoError(t, err)
	require.NoError(t, f.tickets.Create(ctx, &models.Ticket{Subject: "anon", Message: "m"}))

	rows, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "anon", rows[0].Subject)
	assert.Equal(t, "匿名用户", rows[0].Name)
	assert.Equal(t, "second", rows[1].Subject)
	assert.Equal(t, "amy", rows[1].Name)
	assert.Equal(t, "amy@x.io", rows[1].Email)
}

func TestListEmpty(t *testing.T) {
	f := newFixture(nil)
	w := httptest.NewRecorder()
	NewHandler(f.svc).List(w, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSubmitHandler(t *testing.T) {
	f := newFixture(nil)
	f.users.AddUser("u1", "amy@x.io", "amy", "pw")
	f.users.AddToken("tok", "u1")
	h := middleware.RequireUser(f.users)(http.HandlerFunc(NewHandler(f.svc).Submit))

	post := func(auth string, body any) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/tickets", bytes.NewReader(b))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := post("", models.SubmitTicketRequest{Subject: "s", Message: "m"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("Bearer tok", models.SubmitTicketRequest{Subject: "", Message: "m"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.tickets.rows)
	assert.Empty(t, f.mail.Sent())

	w = post("Bearer tok", models.SubmitTicketRequest{Subject: "s", Message: "m"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp submitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "工单提交成功！", resp.Message)
	require.NotNil(t, resp.Ticket)
	assert.Equal(t, "s", resp.Ticket.Subject)
}
