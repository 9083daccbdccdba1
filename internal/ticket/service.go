// Package ticket handles support ticket submission and the admin listing.
package ticket

import (
	"context"
	"fmt"
	"strings"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/mail"
	"github.com/tribithub/portal/backend/internal/models"
)

const (
	anonymousName = "匿名用户"
	unknownName   = "未知用户"
	noEmail       = "N/A"
)

// Store persists tickets.
type Store interface {
	Create(ctx context.Context, t *models.Ticket) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]models.Ticket, error)
}

// ProfileLister resolves display names for a batch of identity ids.
type ProfileLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Profile, error)
}

type Service struct {
	tickets  Store
	users    identity.Provider
	profiles ProfileLister
	mailer   mail.Sender
	brand    string
}

func NewService(tickets Store, users identity.Provider, profiles ProfileLister, mailer mail.Sender, brand string) *Service {
	return &Service{tickets: tickets, users: users, profiles: profiles, mailer: mailer, brand: brand}
}

// Submit stores a ticket owned by owner and mails a confirmation to the
// owner's address. When the mail cannot be sent the ticket is removed again
// and an error is returned.
func (s *Service) Submit(ctx context.Context, owner *models.Identity, subject, message string) (*models.Ticket, error) {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(message) == "" {
		return nil, apperr.New(apperr.ErrValidation, "主题和内容不能为空")
	}

	ownerID := owner.ID
	t := &models.Ticket{Subject: subject, Message: message, UserID: &ownerID}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}

	msg := mail.TicketReceivedEmail(s.brand, owner.Email, owner.Username, t)
	if err := s.mailer.Send(ctx, msg); err != nil {
		if derr := s.tickets.Delete(ctx, t.ID); derr != nil {
			logger.Log.WithField("ticket_id", t.ID).WithError(derr).Error("remove ticket after failed confirmation email")
		}
		return nil, fmt.Errorf("ticket confirmation email: %w", err)
	}

	logger.Log.WithField("ticket_id", t.ID).Info("Ticket submitted")
	return t, nil
}

// List returns every ticket, newest first, with its owner's name and email.
func (s *Service) List(ctx context.Context) ([]models.TicketWithOwner, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := ownerIDs(tickets)
	if len(ids) == 0 {
		return JoinOwners(tickets, nil, nil), nil
	}

	profiles, err := s.profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	idents, err := s.users.ListUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load identities: %w", err)
	}
	return JoinOwners(tickets, idents, profiles), nil
}

func ownerIDs(tickets []models.Ticket) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, t := range tickets {
		if t.UserID == nil || *t.UserID == "" {
			continue
		}
		if _, ok := seen[*t.UserID]; ok {
			continue
		}
		seen[*t.UserID] = struct{}{}
		ids = append(ids, *t.UserID)
	}
	return ids
}

// JoinOwners attaches a display name and email to each ticket. Tickets with
// no owner, or whose owner is unknown to the identity provider, get
// 匿名用户 and N/A. An owner without a profile keeps their email and is
// named 未知用户.
func JoinOwners(tickets []models.Ticket, idents []models.Identity, profiles []models.Profile) []models.TicketWithOwner {
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Username
	}
	type owner struct{ name, email string }
	owners := make(map[string]owner, len(idents))
	for _, u := range idents {
		o := owner{name: names[u.ID], email: u.Email}
		if o.name == "" {
			o.name = unknownName
		}
		owners[u.ID] = o
	}

	out := make([]models.TicketWithOwner, 0, len(tickets))
	for _, t := range tickets {
		row := models.TicketWithOwner{Ticket: t, Name: anonymousName, Email: noEmail}
		if t.UserID != nil {
			if o, ok := owners[*t.UserID]; ok {
				row.Name = o.name
				if o.email != "" {
					row.Email = o.email
				}
			}
		}
		out = append(out, row)
	}
	return out
}
