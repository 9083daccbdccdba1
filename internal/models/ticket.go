package models

import "time"

// Ticket is a row in the tickets table. UserID is nil for anonymous rows.
type Ticket struct {
	ID          int64     `json:"id"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	UserID      *string   `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TicketWithOwner is a ticket enriched with its submitter's name and email
// at read time.
type TicketWithOwner struct {
	Ticket
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmitTicketRequest is the JSON body for POST /api/tickets.
type SubmitTicketRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}
