package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/models"
)

// UserStore keeps accounts for the local identity driver.
type UserStore struct {
	pg *PostgresStore
}

func NewUserStore(pg *PostgresStore) *UserStore {
	return &UserStore{pg: pg}
}

func (s *UserStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.pg.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, username, email, created_at`,
		uuid.NewString(), username, email, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, identity.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pg.pool.QueryRow(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE lower(email) = lower($1)`, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, userErr(err)
	}
	return &u, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pg.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, userErr(err)
	}
	return &u, nil
}

func (s *UserStore) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pg.pool.Query(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *UserStore) UpdatePassword(ctx context.Context, email, hashedPassword string) error {
	tag, err := s.pg.pool.Exec(ctx,
		`UPDATE users SET password = $2 WHERE lower(email) = lower($1)`, email, hashedPassword)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func userErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.ErrUserNotFound
	}
	return err
}
