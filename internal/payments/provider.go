// Package payments defines the contract with the external hosted-checkout
// payment provider. Sessions are created here and completed on the provider's
// pages; this service only ever reads session state back.
package payments

import "context"

// Session statuses reported by the provider.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// Metadata keys attached to checkout sessions.
const (
	MetadataIssueID = "issue_id"
	MetadataUserID  = "user_id"
)

// Session is the provider's view of one checkout.
type Session struct {
	ID          string
	URL         string
	Status      string
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// CreateSessionInput describes a new checkout session.
type CreateSessionInput struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// Provider is the payment collaborator interface.
type Provider interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}
