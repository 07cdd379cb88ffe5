package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
)

type triageFixture struct {
	triage   *TriageService
	issues   *IssueService
	repo     *fakeIssueRepo
	users    *fakeUserRepo
	timeline *fakeTimelineRepo

	admin    *domain.User
	staff    *domain.User
	reporter *domain.User
}

func newTriageFixture(t *testing.T) *triageFixture {
	t.Helper()
	issueRepo := newFakeIssueRepo()
	userRepo := newFakeUserRepo()
	timelineRepo := newFakeTimelineRepo()
	dispatcher := events.NewInMemoryDispatcher()

	deps := TriageDependencies{
		IssueRepo:    issueRepo,
		UserRepo:     userRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
	}
	issueSvc := NewIssueService(IssueDependencies{
		IssueRepo:    issueRepo,
		UserRepo:     userRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
	})

	return &triageFixture{
		triage:   NewTriageService(deps),
		issues:   issueSvc,
		repo:     issueRepo,
		users:    userRepo,
		timeline: timelineRepo,
		admin:    userRepo.add(&domain.User{Name: "Admin", Role: domain.RoleAdmin}),
		staff:    userRepo.add(&domain.User{Name: "Sam Staff", Role: domain.RoleStaff}),
		reporter: userRepo.add(&domain.User{Name: "Rita Reporter", Role: domain.RoleCitizen}),
	}
}

func (f *triageFixture) newPendingIssue(t *testing.T) *domain.Issue {
	t.Helper()
	issue, err := f.issues.Report(context.Background(), f.reporter, validReport())
	require.NoError(t, err)
	return issue
}

func TestAssignStaffHappyPath(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	assigned, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.IssueStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedStaff)
	assert.Equal(t, f.staff.ID, assigned.AssignedStaff.ID)
	assert.Equal(t, f.staff.Name, assigned.AssignedStaff.Name)
}

func TestAssignStaffRequiresAdmin(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.staff, issue.ID, f.staff.ID)
	assertErrCode(t, err, "FORBIDDEN")
}

func TestAssignRejectsNonStaffAssignee(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.reporter.ID)
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestAssignAlreadyAssigned(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	other := f.users.add(&domain.User{Name: "Second Staff", Role: domain.RoleStaff})
	_, err = f.triage.AssignStaff(context.Background(), f.admin, issue.ID, other.ID)
	assertErrCode(t, err, "INVALID_TRANSITION")
}

func TestRejectPendingUnassigned(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	rejected, err := f.triage.Reject(context.Background(), f.admin, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusRejected, rejected.Status)
	assert.Nil(t, rejected.AssignedStaff)
}

func TestRejectAssignedIssueFails(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	_, err = f.triage.Reject(context.Background(), f.admin, issue.ID)
	assertErrCode(t, err, "INVALID_TRANSITION")
}

func TestUpdateStatusFullForwardPath(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	for _, target := range []string{"IN_PROGRESS", "WORKING", "RESOLVED", "CLOSED"} {
		updated, err := f.triage.UpdateStatus(context.Background(), f.staff, issue.ID, target)
		require.NoError(t, err, "transition to %s", target)
		normalized, _ := domain.NormalizeStatus(target)
		assert.Equal(t, normalized, updated.Status)
	}

	// 1 created + 1 assigned + 4 status changes
	entries, err := f.timeline.ListByIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestUpdateStatusAcceptsLegacyVariants(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	updated, err := f.triage.UpdateStatus(context.Background(), f.staff, issue.ID, "In-progress")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusInProgress, updated.Status)
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.UpdateStatus(context.Background(), f.staff, issue.ID, "DONE")
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateStatusByOtherStaffForbidden(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	other := f.users.add(&domain.User{Name: "Other Staff", Role: domain.RoleStaff})
	_, err = f.triage.UpdateStatus(context.Background(), other, issue.ID, "IN_PROGRESS")
	assertErrCode(t, err, "FORBIDDEN")
}

func TestUpdateStatusSkippingForward(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	_, err = f.triage.UpdateStatus(context.Background(), f.staff, issue.ID, "RESOLVED")
	assertErrCode(t, err, "INVALID_TRANSITION")
}

func TestUpdateStatusOnTerminalIssue(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.Reject(context.Background(), f.admin, issue.ID)
	require.NoError(t, err)

	_, err = f.triage.UpdateStatus(context.Background(), f.staff, issue.ID, "ASSIGNED")
	assertErrCode(t, err, "INVALID_TRANSITION")
}

func TestUpdateStatusLostRaceSurfacesConflict(t *testing.T) {
	f := newTriageFixture(t)
	issue := f.newPendingIssue(t)

	_, err := f.triage.AssignStaff(context.Background(), f.admin, issue.ID, f.staff.ID)
	require.NoError(t, err)

	// another writer moves the issue between read and compare-and-set
	applied, err := f.repo.TransitionStatus(context.Background(), issue.ID, domain.IssueStatusAssigned, domain.IssueStatusInProgress)
	require.NoError(t, err)
	require.True(t, applied)

	_, err = f.triage.UpdateStatus(context.Background(), f.staff, issue.ID, "IN_PROGRESS")
	assertErrCode(t, err, "INVALID_TRANSITION")
}
