package domain

import "time"

// Timeline entry actions that do not correspond to a status transition.
const (
	TimelineActionCreated = "Created"
	TimelineActionBoosted = "Boosted"
)

// TimelineEntry is one row of an issue's append-only audit trail. Entries are
// never updated, reordered, or deleted once written.
type TimelineEntry struct {
	ID        string
	IssueID   string
	Action    string
	Message   string
	ActorName string
	CreatedAt time.Time
}
