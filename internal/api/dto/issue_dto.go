package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// ReportIssueRequest payload.
type ReportIssueRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Location    string  `json:"location"`
	ImageURL    *string `json:"image_url"`
}

// EditIssueRequest payload. Omitted fields are unchanged.
type EditIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	ImageURL    *string `json:"image_url"`
}

// AssignStaffRequest payload.
type AssignStaffRequest struct {
	StaffID string `json:"staff_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ReporterResponse is the reporter snapshot embedded in issue responses.
type ReporterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StaffResponse is the assignee snapshot embedded in issue responses.
type StaffResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueSummary response for listings.
type IssueSummary struct {
	ID          string               `json:"id"`
	TrackingKey string               `json:"tracking_key"`
	Title       string               `json:"title"`
	Category    domain.IssueCategory `json:"category"`
	Location    string               `json:"location"`
	ImageURL    *string              `json:"image_url"`
	Status      domain.IssueStatus   `json:"status"`
	Priority    domain.IssuePriority `json:"priority"`
	Upvotes     int                  `json:"upvotes"`
	IsBoosted   bool                 `json:"is_boosted"`
	ReportedBy  ReporterResponse     `json:"reported_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// IssueDetailResponse provides full issue info with its timeline.
type IssueDetailResponse struct {
	ID            string                  `json:"id"`
	TrackingKey   string                  `json:"tracking_key"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Category      domain.IssueCategory    `json:"category"`
	Location      string                  `json:"location"`
	ImageURL      *string                 `json:"image_url"`
	Status        domain.IssueStatus      `json:"status"`
	Priority      domain.IssuePriority    `json:"priority"`
	Upvotes       int                     `json:"upvotes"`
	UpvotedByMe   bool                    `json:"upvoted_by_me"`
	IsBoosted     bool                    `json:"is_boosted"`
	ReportedBy    ReporterResponse        `json:"reported_by"`
	AssignedStaff *StaffResponse          `json:"assigned_staff"`
	Timeline      []TimelineEntryResponse `json:"timeline"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// TimelineEntryResponse is one audit-trail row.
type TimelineEntryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	ActorName string    `json:"actor_name"`
	CreatedAt time.Time `json:"created_at"`
}

// UpvoteResponse reports a toggle outcome.
type UpvoteResponse struct {
	Action  string `json:"action"`
	Upvotes int    `json:"upvotes"`
}
