package store

import (
	"context"
	"fmt"

	"github.com/tribithub/portal/backend/internal/models"
)

// TicketStore persists support tickets.
type TicketStore struct {
	pg *PostgresStore
}

func NewTicketStore(pg *PostgresStore) *TicketStore {
	return &TicketStore{pg: pg}
}

// Create inserts t and fills in its id and submission time.
func (s *TicketStore) Create(ctx context.Context, t *models.Ticket) error {
	err := s.pg.pool.QueryRow(ctx,
		`INSERT INTO tickets (subject, message, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, submitted_at`,
		t.Subject, t.Message, t.UserID,
	).Scan(&t.ID, &t.SubmittedAt)
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (s *TicketStore) Delete(ctx context.Context, id int64) error {
	_, err := s.pg.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	return err
}

// ListAll returns every ticket, newest first.
func (s *TicketStore) ListAll(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.pg.pool.Query(ctx,
		`SELECT id, subject, message, user_id, submitted_at
		 FROM tickets ORDER BY submitted_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.Subject, &t.Message, &t.UserID, &t.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
