package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
)

func newUpvoteFixture() (*UpvoteService, *fakeIssueRepo, *fakeUserRepo) {
	issueRepo := newFakeIssueRepo()
	userRepo := newFakeUserRepo()
	return NewUpvoteService(issueRepo, events.NewInMemoryDispatcher()), issueRepo, userRepo
}

func seedIssue(repo *fakeIssueRepo, reporterID string) *domain.Issue {
	return repo.add(&domain.Issue{
		Title:      "Pothole",
		Status:     domain.IssueStatusPending,
		Priority:   domain.IssuePriorityNormal,
		ReportedBy: domain.ReporterRef{ID: reporterID, Name: "Reporter"},
	})
}

func TestToggleAddsThenRemoves(t *testing.T) {
	svc, issueRepo, userRepo := newUpvoteFixture()
	voter := citizen(userRepo, "vera")
	issue := seedIssue(issueRepo, "someone-else")

	result, err := svc.Toggle(context.Background(), voter, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, UpvoteAdded, result.Action)
	assert.Equal(t, 1, result.Upvotes)

	result, err = svc.Toggle(context.Background(), voter, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, UpvoteRemoved, result.Action)
	assert.Equal(t, 0, result.Upvotes)

	stored, err := issueRepo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.UpvotedBy)
}

func TestToggleSelfVoteRejected(t *testing.T) {
	svc, issueRepo, userRepo := newUpvoteFixture()
	reporter := citizen(userRepo, "wally")
	issue := seedIssue(issueRepo, reporter.ID)

	_, err := svc.Toggle(context.Background(), reporter, issue.ID)
	assertErrCode(t, err, "SELF_VOTE")

	stored, err := issueRepo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Upvotes)
}

func TestToggleBlockedUser(t *testing.T) {
	svc, issueRepo, userRepo := newUpvoteFixture()
	voter := userRepo.add(&domain.User{Name: "xena", Role: domain.RoleCitizen, IsBlocked: true})
	issue := seedIssue(issueRepo, "someone-else")

	_, err := svc.Toggle(context.Background(), voter, issue.ID)
	assertErrCode(t, err, "FORBIDDEN")
}

func TestToggleMissingIssue(t *testing.T) {
	svc, _, userRepo := newUpvoteFixture()
	voter := citizen(userRepo, "yuri")

	_, err := svc.Toggle(context.Background(), voter, "missing")
	assertErrCode(t, err, "NOT_FOUND")
}

func TestConcurrentTogglesByDistinctVotersCountEachOnce(t *testing.T) {
	svc, issueRepo, userRepo := newUpvoteFixture()
	issue := seedIssue(issueRepo, "someone-else")

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		voter := citizen(userRepo, "voter"+string(rune('a'+i)))
		wg.Add(1)
		go func(u *domain.User) {
			defer wg.Done()
			_, err := svc.Toggle(context.Background(), u, issue.ID)
			assert.NoError(t, err)
		}(voter)
	}
	wg.Wait()

	stored, err := issueRepo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, stored.Upvotes)
	assert.Len(t, stored.UpvotedBy, voters)
}

func TestVoterSetAndCounterStayConsistent(t *testing.T) {
	svc, issueRepo, userRepo := newUpvoteFixture()
	issue := seedIssue(issueRepo, "someone-else")
	voter := citizen(userRepo, "zane")

	for i := 0; i < 5; i++ {
		_, err := svc.Toggle(context.Background(), voter, issue.ID)
		require.NoError(t, err)

		stored, err := issueRepo.GetByID(context.Background(), issue.ID)
		require.NoError(t, err)
		assert.Equal(t, len(stored.UpvotedBy), stored.Upvotes)
	}
}
