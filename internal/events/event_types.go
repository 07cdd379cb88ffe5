package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueRejected      EventType = "issue_rejected"
	EventIssueUpvoted       EventType = "issue_upvoted"
	EventIssueBoosted       EventType = "issue_boosted"
	EventPremiumActivated   EventType = "premium_activated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	TrackingKey string               `json:"tracking_key"`
	Title       string               `json:"title"`
	Category    domain.IssueCategory `json:"category"`
	Location    string               `json:"location"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	StaffID   string `json:"staff_id"`
	StaffName string `json:"staff_name"`
}

// IssueUpvotedPayload payload.
type IssueUpvotedPayload struct {
	Action  string `json:"action"`
	Upvotes int    `json:"upvotes"`
}

// IssueBoostedPayload payload.
type IssueBoostedPayload struct {
	SessionID string `json:"session_id"`
}

// PremiumActivatedPayload payload.
type PremiumActivatedPayload struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}
