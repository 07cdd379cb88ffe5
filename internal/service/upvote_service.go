package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// Upvote toggle outcomes.
const (
	UpvoteAdded   = "added"
	UpvoteRemoved = "removed"
)

// ToggleResult reports the outcome of an upvote toggle.
type ToggleResult struct {
	Action  string
	Upvotes int
}

// UpvoteService owns the per-issue upvote ledger. Membership mutations are
// conditional single-statement updates in the repository, so concurrent
// toggles by different users never lose a count and repeated toggles by the
// same user land on one consistent state.
type UpvoteService struct {
	issues     repository.IssueRepository
	dispatcher events.Dispatcher
}

// NewUpvoteService constructs the service.
func NewUpvoteService(issues repository.IssueRepository, dispatcher events.Dispatcher) *UpvoteService {
	return &UpvoteService{issues: issues, dispatcher: dispatcher}
}

// Toggle adds the caller's upvote when absent and removes it when present.
// Reporters cannot vote on their own issues.
func (s *UpvoteService) Toggle(ctx context.Context, user *domain.User, issueID string) (*ToggleResult, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if user.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	if issue.ReportedBy.ID == user.ID {
		return nil, apperrors.NewSelfVote()
	}

	var result ToggleResult
	if issue.HasUpvoted(user.ID) {
		upvotes, applied, err := s.issues.RemoveUpvote(ctx, issueID, user.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !applied {
			// a concurrent request of ours removed it first; toggle adds it back
			upvotes, _, err = s.issues.AddUpvote(ctx, issueID, user.ID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			result = ToggleResult{Action: UpvoteAdded, Upvotes: upvotes}
		} else {
			result = ToggleResult{Action: UpvoteRemoved, Upvotes: upvotes}
		}
	} else {
		upvotes, applied, err := s.issues.AddUpvote(ctx, issueID, user.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !applied {
			upvotes, _, err = s.issues.RemoveUpvote(ctx, issueID, user.ID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			result = ToggleResult{Action: UpvoteRemoved, Upvotes: upvotes}
		} else {
			result = ToggleResult{Action: UpvoteAdded, Upvotes: upvotes}
		}
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueUpvoted,
		IssueID: issueID,
		Actor:   actorFor(user),
		Payload: events.IssueUpvotedPayload{Action: result.Action, Upvotes: result.Upvotes},
	})
	return &result, nil
}
