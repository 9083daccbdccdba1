// Package verification issues and consumes one-time email codes.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/mail"
	"github.com/tribithub/portal/backend/internal/models"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// CodeStore persists issued codes.
type CodeStore interface {
	Insert(ctx context.Context, c *models.VerificationCode) error
	// Latest returns the code with the greatest expiry for the pair, or nil.
	Latest(ctx context.Context, email string, purpose models.CodePurpose) (*models.VerificationCode, error)
	// Claim deletes the code with id and reports whether this call removed it.
	Claim(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context, email string, purpose models.CodePurpose) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Limiter caps how often a key may be used within some window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Options struct {
	Brand   string
	TTL     time.Duration
	Limiter Limiter
}

type Service struct {
	codes   CodeStore
	users   identity.Provider
	mailer  mail.Sender
	limiter Limiter
	brand   string
	ttl     time.Duration
	now     func() time.Time
}

func NewService(codes CodeStore, users identity.Provider, mailer mail.Sender, opts Options) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{
		codes:   codes,
		users:   users,
		mailer:  mailer,
		limiter: opts.Limiter,
		brand:   opts.Brand,
		ttl:     ttl,
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// Issue creates a code for (email, purpose) and mails it. For signup an
// existing account is a DuplicateAccount error; for password reset an
// unknown email is silently skipped and sent reports false.
func (s *Service) Issue(ctx context.Context, email string, purpose models.CodePurpose) (sent bool, err error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, apperr.New(apperr.ErrValidation, "邮箱不能为空")
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, string(purpose)+":"+email)
		if err != nil {
			return false, fmt.Errorf("rate limit: %w", err)
		}
		if !ok {
			return false, apperr.ErrRateLimited
		}
	}

	exists := true
	if _, err := s.users.FindUserByEmail(ctx, email); err != nil {
		if !errors.Is(err, identity.ErrUserNotFound) {
			return false, fmt.Errorf("look up account: %w", err)
		}
		exists = false
	}
	switch {
	case purpose == models.PurposeSignup && exists:
		return false, apperr.New(apperr.ErrDuplicateAccount, "该邮箱已被注册")
	case purpose == models.PurposePasswordReset && !exists:
		return false, nil
	}

	code, err := generateCode()
	if err != nil {
		return false, fmt.Errorf("generate code: %w", err)
	}
	rec := &models.VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.codes.Insert(ctx, rec); err != nil {
		return false, fmt.Errorf("store code: %w", err)
	}

	msg := mail.VerificationCodeEmail(s.brand, email, code, purpose, s.ttl)
	if err := s.mailer.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("send code email: %w", err)
	}
	return true, nil
}

// Consume checks code against the newest code issued for (email, purpose)
// and, when it matches and has not expired, claims it and runs apply. Only
// one caller can claim a given code. Every code for the pair is deleted once
// apply succeeds; a failed apply puts the claimed code back.
func (s *Service) Consume(ctx context.Context, email string, purpose models.CodePurpose, code string, apply func(ctx context.Context) error) error {
	email = normalizeEmail(email)
	rec, err := s.codes.Latest(ctx, email, purpose)
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if rec == nil || rec.Code != code || s.now().After(rec.ExpiresAt) {
		return errInvalidCode()
	}

	claimed, err := s.codes.Claim(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("claim code: %w", err)
	}
	if !claimed {
		return errInvalidCode()
	}

	fields := logrus.Fields{"email": email, "purpose": purpose}
	if err := apply(ctx); err != nil {
		restored := *rec
		if rerr := s.codes.Insert(ctx, &restored); rerr != nil {
			logger.Log.WithFields(fields).WithError(rerr).Error("restore verification code")
		}
		return err
	}

	if err := s.codes.DeleteAll(ctx, email, purpose); err != nil {
		logger.Log.WithFields(fields).WithError(err).Error("delete consumed verification codes")
	}
	return nil
}

func errInvalidCode() error {
	return apperr.New(apperr.ErrInvalidCode, "验证码无效或已过期")
}
