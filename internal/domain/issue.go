package domain

import (
	"strings"
	"time"
)

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "PENDING"
	IssueStatusAssigned   IssueStatus = "ASSIGNED"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusWorking    IssueStatus = "WORKING"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
	IssueStatusRejected   IssueStatus = "REJECTED"
)

// NormalizeStatus maps incoming status strings, including the legacy display
// variants used by older clients ("Assigned to Staff", "In-progress"), onto
// the canonical enum. The second return value is false for unknown input.
func NormalizeStatus(raw string) (IssueStatus, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "PENDING":
		return IssueStatusPending, true
	case "ASSIGNED", "ASSIGNED_TO_STAFF":
		return IssueStatusAssigned, true
	case "IN_PROGRESS", "INPROGRESS":
		return IssueStatusInProgress, true
	case "WORKING":
		return IssueStatusWorking, true
	case "RESOLVED":
		return IssueStatusResolved, true
	case "CLOSED":
		return IssueStatusClosed, true
	case "REJECTED":
		return IssueStatusRejected, true
	}
	return "", false
}

// DisplayName returns the human-readable form used in timeline entries.
func (s IssueStatus) DisplayName() string {
	switch s {
	case IssueStatusPending:
		return "Pending"
	case IssueStatusAssigned:
		return "Assigned"
	case IssueStatusInProgress:
		return "In-Progress"
	case IssueStatusWorking:
		return "Working"
	case IssueStatusResolved:
		return "Resolved"
	case IssueStatusClosed:
		return "Closed"
	case IssueStatusRejected:
		return "Rejected"
	}
	return string(s)
}

// IssuePriority enumerates priority levels. Boosting raises an issue to High.
type IssuePriority string

const (
	IssuePriorityNormal IssuePriority = "NORMAL"
	IssuePriorityHigh   IssuePriority = "HIGH"
)

// IssueCategory enumerates infrastructure problem categories.
type IssueCategory string

const (
	CategoryRoad        IssueCategory = "ROAD"
	CategoryWater       IssueCategory = "WATER"
	CategorySanitation  IssueCategory = "SANITATION"
	CategoryElectricity IssueCategory = "ELECTRICITY"
	CategoryStreetlight IssueCategory = "STREETLIGHT"
	CategoryDrainage    IssueCategory = "DRAINAGE"
	CategoryOther       IssueCategory = "OTHER"
)

// NormalizeCategory maps free-form category input onto the enum, falling back
// to Other for anything unrecognized.
func NormalizeCategory(raw string) IssueCategory {
	switch IssueCategory(strings.ToUpper(strings.TrimSpace(raw))) {
	case CategoryRoad:
		return CategoryRoad
	case CategoryWater:
		return CategoryWater
	case CategorySanitation:
		return CategorySanitation
	case CategoryElectricity:
		return CategoryElectricity
	case CategoryStreetlight:
		return CategoryStreetlight
	case CategoryDrainage:
		return CategoryDrainage
	}
	return CategoryOther
}

// ReporterRef is the denormalized reporter snapshot taken at creation time.
// The canonical identity lives in the users table; the snapshot is display
// caching and is not kept in sync afterwards.
type ReporterRef struct {
	ID    string
	Name  string
	Email string
}

// StaffRef is the denormalized assignee snapshot set by admin assignment.
type StaffRef struct {
	ID   string
	Name string
}

// Issue is the aggregate for a reported infrastructure problem.
type Issue struct {
	ID            string
	TrackingKey   string
	Title         string
	Description   string
	Category      IssueCategory
	Location      string
	ImageURL      *string
	Status        IssueStatus
	Priority      IssuePriority
	Upvotes       int
	UpvotedBy     []string
	ReportedBy    ReporterRef
	AssignedStaff *StaffRef
	IsBoosted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasUpvoted reports whether the given user id is in the upvoter set.
func (i *Issue) HasUpvoted(userID string) bool {
	for _, id := range i.UpvotedBy {
		if id == userID {
			return true
		}
	}
	return false
}
