package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// PaymentsHandler manages boost and premium checkout endpoints.
type PaymentsHandler struct {
	payments *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: paymentService}
}

// CreateBoostSession POST /issues/:id/boost/session.
func (h *PaymentsHandler) CreateBoostSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	ref, err := h.payments.CreateBoostSession(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.CheckoutSessionResponse{SessionID: ref.SessionID, URL: ref.URL},
	})
}

// ConfirmBoost PATCH /issues/:id/boost/confirm.
func (h *PaymentsHandler) ConfirmBoost(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return apperrors.NewValidationError("session_id required", nil)
	}

	issue, err := h.payments.ConfirmBoost(c.UserContext(), principal, c.Params("id"), req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// CreatePremiumSession POST /payments/premium/session.
func (h *PaymentsHandler) CreatePremiumSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	ref, err := h.payments.CreatePremiumSession(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.CheckoutSessionResponse{SessionID: ref.SessionID, URL: ref.URL},
	})
}

// ConfirmPremium PATCH /payments/premium/confirm.
func (h *PaymentsHandler) ConfirmPremium(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return apperrors.NewValidationError("session_id required", nil)
	}

	user, err := h.payments.ConfirmPremium(c.UserContext(), principal, req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ListPayments GET /payments/history.
func (h *PaymentsHandler) ListPayments(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parsePageSize(c.Query("page_size"), 50)

	records, err := h.payments.History(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponses(records)})
}

func paymentResponses(records []domain.Payment) []dto.PaymentResponse {
	items := make([]dto.PaymentResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.PaymentResponse{
			ID:          record.ID,
			SessionID:   record.SessionID,
			Kind:        record.Kind,
			IssueID:     record.IssueID,
			UserID:      record.UserID,
			AmountCents: record.AmountCents,
			Currency:    record.Currency,
			CreatedAt:   record.CreatedAt,
		})
	}
	return items
}
