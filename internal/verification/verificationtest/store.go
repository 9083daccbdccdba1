// Package verificationtest provides an in-memory verification.CodeStore.
package verificationtest

import (
	"context"
	"sync"
	"time"

	"github.com/tribithub/portal/backend/internal/models"
)

type Store struct {
	mu     sync.Mutex
	codes  []models.VerificationCode
	nextID int64
}

func New() *Store { return &Store{} }

func (s *Store) Insert(_ context.Context, c *models.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.codes = append(s.codes, *c)
	return nil
}

func (s *Store) Latest(_ context.Context, email string, purpose models.CodePurpose) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.VerificationCode
	for i := range s.codes {
		c := s.codes[i]
		if c.Email != email || c.Purpose != purpose {
			continue
		}
		if best == nil || c.ExpiresAt.After(best.ExpiresAt) ||
			(c.ExpiresAt.Equal(best.ExpiresAt) && c.ID > best.ID) {
			best = &c
		}
	}
	return best, nil
}

func (s *Store) Claim(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.codes {
		if c.ID == id {
			s.codes = append(s.codes[:i], s.codes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteAll(_ context.Context, email string, purpose models.CodePurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.codes[:0]
	for _, c := range s.codes {
		if c.Email == email && c.Purpose == purpose {
			continue
		}
		kept = append(kept, c)
	}
	s.codes = kept
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	kept := s.codes[:0]
	for _, c := range s.codes {
		if c.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	s.codes = kept
	return n, nil
}

// All returns a copy of every stored code.
func (s *Store) All() []models.VerificationCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.VerificationCode(nil), s.codes...)
}

// Put stores c as-is, for seeding expired or conflicting codes.
func (s *Store) Put(c models.VerificationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.codes = append(s.codes, c)
}
