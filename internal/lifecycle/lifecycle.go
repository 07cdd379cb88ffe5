// Package lifecycle holds the issue status state machine: which transitions
// exist and who may trigger them. All status writes in the service layer go
// through CheckTransition before touching the database.
package lifecycle

import (
	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// permission describes who may take one edge of the transition table.
type permission struct {
	admin         bool
	assignedStaff bool
}

// transitions is the full static table. Forward progress only, no skipping;
// REJECTED is reachable solely from PENDING and both REJECTED and CLOSED are
// terminal.
var transitions = map[domain.IssueStatus]map[domain.IssueStatus]permission{
	domain.IssueStatusPending: {
		domain.IssueStatusAssigned: {admin: true},
		domain.IssueStatusRejected: {admin: true},
	},
	domain.IssueStatusAssigned: {
		domain.IssueStatusInProgress: {assignedStaff: true},
	},
	domain.IssueStatusInProgress: {
		domain.IssueStatusWorking: {assignedStaff: true},
	},
	domain.IssueStatusWorking: {
		domain.IssueStatusResolved: {assignedStaff: true},
	},
	domain.IssueStatusResolved: {
		domain.IssueStatusClosed: {assignedStaff: true, admin: true},
	},
	domain.IssueStatusClosed:   {},
	domain.IssueStatusRejected: {},
}

// IsTerminal reports whether no transition leaves the given status.
func IsTerminal(status domain.IssueStatus) bool {
	return len(transitions[status]) == 0
}

// NextStatuses returns the statuses reachable from the given one, regardless
// of actor.
func NextStatuses(from domain.IssueStatus) []domain.IssueStatus {
	edges := transitions[from]
	next := make([]domain.IssueStatus, 0, len(edges))
	for to := range edges {
		next = append(next, to)
	}
	return next
}

// CheckTransition validates the edge from -> to for the given actor acting on
// the given issue. Unknown edges fail with INVALID_TRANSITION; known edges
// taken by the wrong actor fail with FORBIDDEN.
func CheckTransition(from, to domain.IssueStatus, actor *domain.User, issue *domain.Issue) error {
	perm, ok := transitions[from][to]
	if !ok {
		return apperrors.NewInvalidTransition(string(from), string(to))
	}
	if actor == nil {
		return apperrors.NewForbidden("actor required")
	}
	if perm.admin && actor.Role == domain.RoleAdmin {
		return nil
	}
	if perm.assignedStaff && actor.Role == domain.RoleStaff &&
		issue.AssignedStaff != nil && issue.AssignedStaff.ID == actor.ID {
		return nil
	}
	return apperrors.NewForbidden("not allowed to perform this transition")
}
