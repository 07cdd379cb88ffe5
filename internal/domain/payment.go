package domain

import "time"

// PaymentKind distinguishes what a confirmed checkout session paid for.
type PaymentKind string

const (
	PaymentKindBoost   PaymentKind = "BOOST"
	PaymentKindPremium PaymentKind = "PREMIUM"
)

// Payment records one confirmed checkout session. The provider session id is
// unique; duplicate confirmations of the same session insert nothing.
// IssueID and UserID are cleared when the issue or account is removed; the
// payment row itself is kept as an audit record.
type Payment struct {
	ID          string
	SessionID   string
	Kind        PaymentKind
	IssueID     *string
	UserID      *string
	AmountCents int64
	Currency    string
	CreatedAt   time.Time
}
