package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// FreeIssueLimit is the lifetime number of reports a non-premium user gets.
const FreeIssueLimit = 3

// IssueService coordinates citizen-facing issue workflows.
type IssueService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	timeline   repository.TimelineRepository
	dispatcher events.Dispatcher
}

// IssueDependencies bundles repositories for issue service.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	UserRepo     repository.UserRepository
	TimelineRepo repository.TimelineRepository
	Dispatcher   events.Dispatcher
}

// ReportInput describes issue creation payload.
type ReportInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	ImageURL    *string
}

// EditInput describes the owner-editable fields. Nil fields are unchanged.
type EditInput struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	ImageURL    *string
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		timeline:   deps.TimelineRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Report files a new issue for the reporter, enforcing the free-tier quota.
func (s *IssueService) Report(ctx context.Context, reporter *domain.User, input ReportInput) (*domain.Issue, error) {
	if reporter == nil {
		return nil, apperrors.NewUnauthorized("reporter required")
	}
	if reporter.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	location := strings.TrimSpace(input.Location)
	if title == "" || description == "" || location == "" {
		return nil, apperrors.NewValidationError("title, description, location required", nil)
	}

	// Quota check and increment are one conditional statement; concurrent
	// reports cannot slip past the limit.
	reserved, err := s.users.ReserveIssueSlot(ctx, reporter.ID, FreeIssueLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !reserved {
		return nil, apperrors.NewQuotaExceeded(FreeIssueLimit)
	}

	issue := &domain.Issue{
		TrackingKey: generateTrackingKey(),
		Title:       title,
		Description: description,
		Category:    domain.NormalizeCategory(input.Category),
		Location:    location,
		ImageURL:    input.ImageURL,
		Status:      domain.IssueStatusPending,
		Priority:    domain.IssuePriorityNormal,
		ReportedBy: domain.ReporterRef{
			ID:    reporter.ID,
			Name:  reporter.Name,
			Email: reporter.Email,
		},
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		// give the slot back so a failed insert does not burn quota
		_ = s.users.ReleaseIssueSlot(ctx, reporter.ID)
		return nil, apperrors.MapError(err)
	}

	if err := s.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:   issue.ID,
		Action:    domain.TimelineActionCreated,
		Message:   "Issue reported by " + reporter.Name,
		ActorName: reporter.Name,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   actorFor(reporter),
		Payload: events.IssueCreatedPayload{
			TrackingKey: issue.TrackingKey,
			Title:       issue.Title,
			Category:    issue.Category,
			Location:    issue.Location,
		},
	})
	return issue, nil
}

// Get fetches a single issue with its timeline.
func (s *IssueService) Get(ctx context.Context, id string) (*domain.Issue, []domain.TimelineEntry, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": id})
		}
		return nil, nil, apperrors.MapError(err)
	}
	entries, err := s.timeline.ListByIssue(ctx, issue.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return issue, entries, nil
}

// List returns issues for the public listing.
func (s *IssueService) List(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	issues, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListByReporter returns the caller's own issues.
func (s *IssueService) ListByReporter(ctx context.Context, userID string) ([]domain.Issue, error) {
	issues, err := s.issues.ListByReporter(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListByAssignedStaff returns issues assigned to the given staff member.
func (s *IssueService) ListByAssignedStaff(ctx context.Context, staffID string) ([]domain.Issue, error) {
	issues, err := s.issues.ListByAssignedStaff(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// Edit updates owner-editable fields while the issue is still Pending.
// Status, votes, assignment, and boost state are not reachable through this
// path.
func (s *IssueService) Edit(ctx context.Context, actor *domain.User, issueID string, input EditInput) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	// non-owners get NOT_FOUND so ownership is not disclosed
	if actor == nil || issue.ReportedBy.ID != actor.ID {
		return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
	}
	if actor.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}
	if issue.Status != domain.IssueStatusPending {
		return nil, apperrors.NewInvalidState("issue can only be edited while pending")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		issue.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		issue.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		issue.Category = domain.NormalizeCategory(*input.Category)
	}
	if input.Location != nil {
		if strings.TrimSpace(*input.Location) == "" {
			return nil, apperrors.NewValidationError("location cannot be empty", nil)
		}
		issue.Location = strings.TrimSpace(*input.Location)
	}
	if input.ImageURL != nil {
		issue.ImageURL = input.ImageURL
	}

	applied, err := s.issues.UpdateDetails(ctx, issue)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !applied {
		// status moved between our read and the guarded write
		return nil, apperrors.NewInvalidState("issue can only be edited while pending")
	}
	return issue, nil
}

// Delete removes an issue. Allowed for the reporting owner at any status and
// for admins; the reporter's quota slot is released either way.
func (s *IssueService) Delete(ctx context.Context, actor *domain.User, issueID string) error {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return apperrors.MapError(err)
	}
	if actor == nil {
		return apperrors.NewUnauthorized("actor required")
	}
	if issue.ReportedBy.ID != actor.ID && actor.Role != domain.RoleAdmin {
		return apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
	}
	if actor.IsBlocked {
		return apperrors.NewForbidden("account is blocked")
	}

	if err := s.issues.Delete(ctx, issueID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.ReleaseIssueSlot(ctx, issue.ReportedBy.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func generateTrackingKey() string {
	return "CIV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
