package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribithub/portal/backend/internal/mail/mailtest"
	"github.com/tribithub/portal/backend/internal/models"
)

type memLog struct {
	mu      sync.Mutex
	entries []models.Delivery
	err     error
}

func (m *memLog) Insert(_ context.Context, d *models.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *d)
	return nil
}

func (m *memLog) ListRecent(_ context.Context, limit int64) ([]models.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Delivery
	for i := len(m.entries) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func TestRecordedLogsOutcome(t *testing.T) {
	ctx := context.Background()
	rec := &mailtest.Recorder{}
	log := &memLog{}
	s := NewRecorded(rec, log)

	require.NoError(t, s.Send(ctx, models.Email{To: "a@x.io", Subject: "hi", Kind: models.EmailTicket}))

	rec.Err = errors.New("smtp down")
	err := s.Send(ctx, models.Email{To: "b@x.io", Subject: "hi", Kind: models.EmailSignupCode})
	require.EqualError(t, err, "smtp down")

	require.Len(t, log.entries, 2)
	assert.Equal(t, models.DeliverySent, log.entries[0].Status)
	assert.Equal(t, models.DeliveryFailed, log.entries[1].Status)
	assert.Equal(t, "smtp down", log.entries[1].Error)
}

func TestRecordedIgnoresLogFailure(t *testing.T) {
	rec := &mailtest.Recorder{}
	s := NewRecorded(rec, &memLog{err: errors.New("mongo down")})

	require.NoError(t, s.Send(context.Background(), models.Email{To: "a@x.io"}))
	assert.Len(t, rec.Sent(), 1)
}

func TestVerificationCodeEmail(t *testing.T) {
	signup := VerificationCodeEmail("TribitHub", "a@x.io", "123456", models.PurposeSignup, 15*time.Minute)
	assert.Equal(t, "您的 TribitHub 注册验证码是 123456", signup.Subject)
	assert.Equal(t, models.EmailSignupCode, signup.Kind)
	assert.Contains(t, signup.HTML, "<strong>123456</strong>")
	assert.Contains(t, signup.HTML, "15 分钟")

	reset := VerificationCodeEmail("TribitHub", "a@x.io", "654321", models.PurposePasswordReset, 15*time.Minute)
	assert.Equal(t, "您的密码重置验证码是 654321", reset.Subject)
	assert.Equal(t, "TribitHub 安全中心", reset.FromName)
}

func TestTicketReceivedEmailEscapes(t *testing.T) {
	e := TicketReceivedEmail("TribitHub", "a@x.io", "<b>amy</b>", &models.Ticket{ID: 7, Subject: "help"})
	assert.Equal(t, "您的工单 #7 已收到", e.Subject)
	assert.Contains(t, e.HTML, "&lt;b&gt;amy&lt;/b&gt;")
	assert.NotContains(t, e.HTML, "<b>amy</b>")
}

func TestHandlerList(t *testing.T) {
	log := &memLog{}
	for i := 0; i < 3; i++ {
		_ = log.Insert(context.Background(), &models.Delivery{To: strings.Repeat("x", i+1)})
	}
	h := NewHandler(log)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/admin/emails?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Delivery
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "xxx", got[0].To)

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/admin/emails?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
