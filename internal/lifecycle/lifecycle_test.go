package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

func admin() *domain.User {
	return &domain.User{ID: "admin-1", Role: domain.RoleAdmin}
}

func staff(id string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleStaff}
}

func issueWith(status domain.IssueStatus, staffID string) *domain.Issue {
	issue := &domain.Issue{ID: "issue-1", Status: status}
	if staffID != "" {
		issue.AssignedStaff = &domain.StaffRef{ID: staffID, Name: "Staff"}
	}
	return issue
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	return domainErr.Code
}

func TestForwardPathForAssignedStaff(t *testing.T) {
	steps := []struct {
		from domain.IssueStatus
		to   domain.IssueStatus
	}{
		{domain.IssueStatusAssigned, domain.IssueStatusInProgress},
		{domain.IssueStatusInProgress, domain.IssueStatusWorking},
		{domain.IssueStatusWorking, domain.IssueStatusResolved},
		{domain.IssueStatusResolved, domain.IssueStatusClosed},
	}
	actor := staff("staff-1")
	for _, step := range steps {
		err := CheckTransition(step.from, step.to, actor, issueWith(step.from, "staff-1"))
		assert.NoError(t, err, "%s -> %s", step.from, step.to)
	}
}

func TestUnassignedStaffCannotAdvance(t *testing.T) {
	err := CheckTransition(domain.IssueStatusAssigned, domain.IssueStatusInProgress,
		staff("staff-2"), issueWith(domain.IssueStatusAssigned, "staff-1"))
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}

func TestAdminCannotDriveStaffOnlyEdges(t *testing.T) {
	for _, step := range []struct {
		from domain.IssueStatus
		to   domain.IssueStatus
	}{
		{domain.IssueStatusAssigned, domain.IssueStatusInProgress},
		{domain.IssueStatusInProgress, domain.IssueStatusWorking},
		{domain.IssueStatusWorking, domain.IssueStatusResolved},
	} {
		err := CheckTransition(step.from, step.to, admin(), issueWith(step.from, "staff-1"))
		require.Error(t, err, "%s -> %s", step.from, step.to)
		assert.Equal(t, "FORBIDDEN", errCode(t, err))
	}
}

func TestAdminMayCloseResolved(t *testing.T) {
	err := CheckTransition(domain.IssueStatusResolved, domain.IssueStatusClosed,
		admin(), issueWith(domain.IssueStatusResolved, "staff-1"))
	assert.NoError(t, err)
}

func TestSkippingStatesIsInvalid(t *testing.T) {
	err := CheckTransition(domain.IssueStatusAssigned, domain.IssueStatusResolved,
		staff("staff-1"), issueWith(domain.IssueStatusAssigned, "staff-1"))
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", errCode(t, err))
}

func TestBackwardTransitionsAreInvalid(t *testing.T) {
	err := CheckTransition(domain.IssueStatusWorking, domain.IssueStatusInProgress,
		staff("staff-1"), issueWith(domain.IssueStatusWorking, "staff-1"))
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", errCode(t, err))
}

func TestRejectedOnlyFromPending(t *testing.T) {
	err := CheckTransition(domain.IssueStatusPending, domain.IssueStatusRejected, admin(), issueWith(domain.IssueStatusPending, ""))
	assert.NoError(t, err)

	for _, from := range []domain.IssueStatus{
		domain.IssueStatusAssigned,
		domain.IssueStatusInProgress,
		domain.IssueStatusWorking,
		domain.IssueStatusResolved,
	} {
		err := CheckTransition(from, domain.IssueStatusRejected, admin(), issueWith(from, "staff-1"))
		require.Error(t, err, "from %s", from)
		assert.Equal(t, "INVALID_TRANSITION", errCode(t, err))
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	assert.True(t, IsTerminal(domain.IssueStatusClosed))
	assert.True(t, IsTerminal(domain.IssueStatusRejected))
	assert.False(t, IsTerminal(domain.IssueStatusPending))

	assert.Empty(t, NextStatuses(domain.IssueStatusClosed))
	assert.Empty(t, NextStatuses(domain.IssueStatusRejected))

	err := CheckTransition(domain.IssueStatusClosed, domain.IssueStatusPending, admin(), issueWith(domain.IssueStatusClosed, ""))
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", errCode(t, err))
}

func TestNilActorIsForbiddenOnKnownEdge(t *testing.T) {
	err := CheckTransition(domain.IssueStatusPending, domain.IssueStatusAssigned, nil, issueWith(domain.IssueStatusPending, ""))
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}
