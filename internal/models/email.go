package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailKind tags outgoing mail so the delivery log can be filtered.
type EmailKind string

const (
	EmailSignupCode EmailKind = "signup_code"
	EmailResetCode  EmailKind = "password_reset_code"
	EmailTicket     EmailKind = "ticket_received"
	EmailMagicLink  EmailKind = "magic_link"
)

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Email is one outgoing transactional message.
type Email struct {
	To       string
	FromName string
	Subject  string
	HTML     string
	Text     string
	Kind     EmailKind
}

// Delivery is a send attempt recorded in MongoDB.
type Delivery struct {
	ID      primitive.ObjectID `json:"id"      bson:"_id,omitempty"`
	To      string             `json:"to"      bson:"to"`
	Subject string             `json:"subject" bson:"subject"`
	Kind    EmailKind          `json:"kind"    bson:"kind"`
	Status  string             `json:"status"  bson:"status"`
	Error   string             `json:"error,omitempty" bson:"error,omitempty"`
	SentAt  time.Time          `json:"sent_at" bson:"sent_at"`
}
