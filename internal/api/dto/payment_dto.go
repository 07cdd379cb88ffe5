package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CheckoutSessionResponse points the client at hosted checkout.
type CheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// ConfirmPaymentRequest payload.
type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id"`
}

// PaymentResponse is one confirmed payment record.
type PaymentResponse struct {
	ID          string             `json:"id"`
	SessionID   string             `json:"session_id"`
	Kind        domain.PaymentKind `json:"kind"`
	IssueID     *string            `json:"issue_id"`
	UserID      *string            `json:"user_id"`
	AmountCents int64              `json:"amount_cents"`
	Currency    string             `json:"currency"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ImageUploadResponse returns the hosted image URL.
type ImageUploadResponse struct {
	URL string `json:"url"`
}
