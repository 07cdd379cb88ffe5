package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/lifecycle"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// TriageService owns the role-gated status workflow: admin assignment and
// rejection, and staff forward transitions. Every successful transition
// appends exactly one timeline entry.
type TriageService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	timeline   repository.TimelineRepository
	dispatcher events.Dispatcher
}

// TriageDependencies bundles repositories.
type TriageDependencies struct {
	IssueRepo    repository.IssueRepository
	UserRepo     repository.UserRepository
	TimelineRepo repository.TimelineRepository
	Dispatcher   events.Dispatcher
}

// NewTriageService creates the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	return &TriageService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		timeline:   deps.TimelineRepo,
		dispatcher: deps.Dispatcher,
	}
}

// AssignStaff moves a pending, unassigned issue to Assigned and snapshots the
// staff member's name. Admin only.
func (s *TriageService) AssignStaff(ctx context.Context, actor *domain.User, issueID, staffID string) (*domain.Issue, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}

	staff, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	if staff.Role != domain.RoleStaff {
		return nil, apperrors.NewValidationError("assignee is not a staff member", map[string]any{"staff_id": staffID})
	}
	if staff.IsBlocked {
		return nil, apperrors.NewConflict("staff member is blocked", map[string]any{"staff_id": staffID})
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckTransition(issue.Status, domain.IssueStatusAssigned, actor, issue); err != nil {
		return nil, err
	}
	if issue.AssignedStaff != nil {
		return nil, apperrors.NewInvalidState("issue is already assigned")
	}

	ref := domain.StaffRef{ID: staff.ID, Name: staff.Name}
	applied, err := s.issues.Assign(ctx, issueID, ref)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !applied {
		return nil, apperrors.NewInvalidTransition(string(issue.Status), string(domain.IssueStatusAssigned))
	}

	issue.Status = domain.IssueStatusAssigned
	issue.AssignedStaff = &ref

	if err := s.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:   issue.ID,
		Action:    domain.IssueStatusAssigned.DisplayName(),
		Message:   "Assigned to " + staff.Name,
		ActorName: actor.Name,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: issue.ID,
		Actor:   actorFor(actor),
		Payload: events.IssueAssignedPayload{StaffID: staff.ID, StaffName: staff.Name},
	})
	return issue, nil
}

// Reject moves a pending, unassigned issue to the terminal Rejected state.
// Admin only.
func (s *TriageService) Reject(ctx context.Context, actor *domain.User, issueID string) (*domain.Issue, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckTransition(issue.Status, domain.IssueStatusRejected, actor, issue); err != nil {
		return nil, err
	}
	if issue.AssignedStaff != nil {
		return nil, apperrors.NewInvalidState("assigned issues cannot be rejected")
	}

	applied, err := s.issues.Reject(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !applied {
		return nil, apperrors.NewInvalidTransition(string(issue.Status), string(domain.IssueStatusRejected))
	}

	oldStatus := issue.Status
	issue.Status = domain.IssueStatusRejected

	if err := s.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:   issue.ID,
		Action:    domain.IssueStatusRejected.DisplayName(),
		Message:   "Issue rejected by " + actor.Name,
		ActorName: actor.Name,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueRejected,
		IssueID: issue.ID,
		Actor:   actorFor(actor),
		Payload: events.IssueStatusChangedPayload{OldStatus: oldStatus, NewStatus: issue.Status},
	})
	return issue, nil
}

// UpdateStatus advances an issue along the forward path. The assigned staff
// member drives Assigned through Resolved; Resolved to Closed is open to the
// assigned staff or an admin.
func (s *TriageService) UpdateStatus(ctx context.Context, actor *domain.User, issueID string, rawStatus string) (*domain.Issue, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("actor required")
	}
	if actor.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}

	target, ok := domain.NormalizeStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": rawStatus})
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckTransition(issue.Status, target, actor, issue); err != nil {
		return nil, err
	}

	// compare-and-set against the status we validated; a concurrent
	// transition surfaces as INVALID_TRANSITION rather than silently winning
	applied, err := s.issues.TransitionStatus(ctx, issueID, issue.Status, target)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !applied {
		return nil, apperrors.NewInvalidTransition(string(issue.Status), string(target))
	}

	oldStatus := issue.Status
	issue.Status = target

	if err := s.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:   issue.ID,
		Action:    target.DisplayName(),
		Message:   fmt.Sprintf("Status changed from %s to %s", oldStatus.DisplayName(), target.DisplayName()),
		ActorName: actor.Name,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: issue.ID,
		Actor:   actorFor(actor),
		Payload: events.IssueStatusChangedPayload{OldStatus: oldStatus, NewStatus: target},
	})
	return issue, nil
}

func (s *TriageService) getIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}
