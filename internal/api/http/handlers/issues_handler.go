package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssuesHandler manages citizen-facing issue endpoints.
type IssuesHandler struct {
	issues  *service.IssueService
	upvotes *service.UpvoteService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService, upvoteService *service.UpvoteService) *IssuesHandler {
	return &IssuesHandler{issues: issueService, upvotes: upvoteService}
}

// ReportIssue POST /issues.
func (h *IssuesHandler) ReportIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ReportIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.issues.Report(c.UserContext(), principal, service.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": issueSummary(issue)})
}

// ListIssues GET /issues. Public listing; boosted issues first.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	filter := parseIssueQuery(c)
	issues, err := h.issues.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// GetIssue GET /issues/:id. Public detail with timeline.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	issue, timeline, err := h.issues.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	var viewerID string
	if principal, ok := auth.PrincipalFromContext(c); ok {
		viewerID = principal.ID
	}
	return c.JSON(fiber.Map{"data": issueDetail(issue, timeline, viewerID)})
}

// ListMyIssues GET /issues/mine.
func (h *IssuesHandler) ListMyIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	issues, err := h.issues.ListByReporter(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// ListAssignedIssues GET /issues/assigned. Staff workload view.
func (h *IssuesHandler) ListAssignedIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	issues, err := h.issues.ListByAssignedStaff(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// EditIssue PATCH /issues/:id.
func (h *IssuesHandler) EditIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.EditIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.issues.Edit(c.UserContext(), principal, c.Params("id"), service.EditInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// DeleteIssue DELETE /issues/:id.
func (h *IssuesHandler) DeleteIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.issues.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleUpvote PUT /issues/:id/upvote.
func (h *IssuesHandler) ToggleUpvote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	result, err := h.upvotes.Toggle(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UpvoteResponse{Action: result.Action, Upvotes: result.Upvotes}})
}

func parseIssueQuery(c *fiber.Ctx) repository.IssueFilter {
	filter := repository.IssueFilter{}
	if raw := c.Query("status"); raw != "" {
		if status, ok := domain.NormalizeStatus(raw); ok {
			filter.Status = &status
		}
	}
	if raw := c.Query("category"); raw != "" {
		category := domain.NormalizeCategory(raw)
		filter.Category = &category
	}
	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		filter.Search = &raw
	}
	filter.BoostedOnly = c.Query("boosted") == "true"

	page := parseInt(c.Query("page"), 1)
	pageSize := parsePageSize(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

// maxPageSize caps listing sizes regardless of what the client asks for.
const maxPageSize = 100

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parsePageSize(val string, def int) int {
	size := parseInt(val, def)
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func issueSummaries(issues []domain.Issue) []dto.IssueSummary {
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return items
}

func issueSummary(issue *domain.Issue) dto.IssueSummary {
	return dto.IssueSummary{
		ID:          issue.ID,
		TrackingKey: issue.TrackingKey,
		Title:       issue.Title,
		Category:    issue.Category,
		Location:    issue.Location,
		ImageURL:    issue.ImageURL,
		Status:      issue.Status,
		Priority:    issue.Priority,
		Upvotes:     issue.Upvotes,
		IsBoosted:   issue.IsBoosted,
		ReportedBy: dto.ReporterResponse{
			ID:    issue.ReportedBy.ID,
			Name:  issue.ReportedBy.Name,
			Email: issue.ReportedBy.Email,
		},
		CreatedAt: issue.CreatedAt,
		UpdatedAt: issue.UpdatedAt,
	}
}

func issueDetail(issue *domain.Issue, timeline []domain.TimelineEntry, viewerID string) dto.IssueDetailResponse {
	entries := make([]dto.TimelineEntryResponse, 0, len(timeline))
	for _, entry := range timeline {
		entries = append(entries, dto.TimelineEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			Message:   entry.Message,
			ActorName: entry.ActorName,
			CreatedAt: entry.CreatedAt,
		})
	}
	var staff *dto.StaffResponse
	if issue.AssignedStaff != nil {
		staff = &dto.StaffResponse{ID: issue.AssignedStaff.ID, Name: issue.AssignedStaff.Name}
	}
	return dto.IssueDetailResponse{
		ID:          issue.ID,
		TrackingKey: issue.TrackingKey,
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		Location:    issue.Location,
		ImageURL:    issue.ImageURL,
		Status:      issue.Status,
		Priority:    issue.Priority,
		Upvotes:     issue.Upvotes,
		UpvotedByMe: viewerID != "" && issue.HasUpvoted(viewerID),
		IsBoosted:   issue.IsBoosted,
		ReportedBy: dto.ReporterResponse{
			ID:    issue.ReportedBy.ID,
			Name:  issue.ReportedBy.Name,
			Email: issue.ReportedBy.Email,
		},
		AssignedStaff: staff,
		Timeline:      entries,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}
}
