package store

import (
	"context"
	"fmt"

	"github.com/tribithub/portal/backend/internal/models"
)

// ProfileStore maps identity ids to a display name and role.
type ProfileStore struct {
	pg *PostgresStore
}

func NewProfileStore(pg *PostgresStore) *ProfileStore {
	return &ProfileStore{pg: pg}
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) error {
	if p.Role == "" {
		p.Role = models.RoleUser
	}
	_, err := s.pg.pool.Exec(ctx,
		`INSERT INTO profiles (id, username, role) VALUES ($1, $2, $3)`,
		p.ID, p.Username, string(p.Role))
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Get returns apperr.ErrNotFound when id has no profile.
func (s *ProfileStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.pg.pool.QueryRow(ctx,
		`SELECT id, username, role FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Username, &p.Role)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *ProfileStore) ListByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pg.pool.Query(ctx,
		`SELECT id, username, role FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Role); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
