package models

import "time"

// CodePurpose separates code namespaces: a signup code never satisfies a
// password reset and vice versa.
type CodePurpose string

const (
	PurposeSignup        CodePurpose = "signup"
	PurposePasswordReset CodePurpose = "password_reset"
)

// VerificationCode is a row in the verification_codes table.
type VerificationCode struct {
	ID        int64
	Email     string
	Code      string
	Purpose   CodePurpose
	ExpiresAt time.Time
	CreatedAt time.Time
}
