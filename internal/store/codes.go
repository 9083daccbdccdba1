package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tribithub/portal/backend/internal/models"
)

// CodeStore persists verification codes.
type CodeStore struct {
	pg *PostgresStore
}

func NewCodeStore(pg *PostgresStore) *CodeStore {
	return &CodeStore{pg: pg}
}

func (s *CodeStore) Insert(ctx context.Context, c *models.VerificationCode) error {
	err := s.pg.pool.QueryRow(ctx,
		`INSERT INTO verification_codes (email, code, purpose, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		c.Email, c.Code, string(c.Purpose), c.ExpiresAt,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert code: %w", err)
	}
	return nil
}

// Latest returns nil, nil when no code exists for the pair.
func (s *CodeStore) Latest(ctx context.Context, email string, purpose models.CodePurpose) (*models.VerificationCode, error) {
	var c models.VerificationCode
	err := s.pg.pool.QueryRow(ctx,
		`SELECT id, email, code, purpose, expires_at, created_at
		 FROM verification_codes
		 WHERE email = $1 AND purpose = $2
		 ORDER BY expires_at DESC, id DESC
		 LIMIT 1`,
		email, string(purpose),
	).Scan(&c.ID, &c.Email, &c.Code, &c.Purpose, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest code: %w", err)
	}
	return &c, nil
}

// Claim removes the code with id; false means another caller got it first.
func (s *CodeStore) Claim(ctx context.Context, id int64) (bool, error) {
	var claimed int64
	err := s.pg.pool.QueryRow(ctx,
		`DELETE FROM verification_codes WHERE id = $1 RETURNING id`, id,
	).Scan(&claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim code: %w", err)
	}
	return true, nil
}

func (s *CodeStore) DeleteAll(ctx context.Context, email string, purpose models.CodePurpose) error {
	_, err := s.pg.pool.Exec(ctx,
		`DELETE FROM verification_codes WHERE email = $1 AND purpose = $2`, email, string(purpose))
	return err
}

func (s *CodeStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pg.pool.Exec(ctx,
		`DELETE FROM verification_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
