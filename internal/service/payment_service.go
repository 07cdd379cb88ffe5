package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/payments"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// PaymentService gates the two paid perks: per-issue boosts and premium
// subscriptions. Confirmation is idempotent; redirects and webhooks may
// deliver the same session any number of times.
type PaymentService struct {
	provider   payments.Provider
	payments   repository.PaymentRepository
	issues     repository.IssueRepository
	users      repository.UserRepository
	timeline   repository.TimelineRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.PaymentConfig
}

// PaymentDependencies bundles collaborators for payment service.
type PaymentDependencies struct {
	Provider     payments.Provider
	PaymentRepo  repository.PaymentRepository
	IssueRepo    repository.IssueRepository
	UserRepo     repository.UserRepository
	TimelineRepo repository.TimelineRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// CheckoutRef is returned to the client for redirecting to hosted checkout.
type CheckoutRef struct {
	SessionID string
	URL       string
}

// NewPaymentService constructs the service.
func NewPaymentService(cfg config.PaymentConfig, deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		provider:   deps.Provider,
		payments:   deps.PaymentRepo,
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		timeline:   deps.TimelineRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// CreateBoostSession opens a checkout session for boosting one issue. Only
// the reporting owner may boost, and only once per issue.
func (s *PaymentService) CreateBoostSession(ctx context.Context, owner *domain.User, issueID string) (*CheckoutRef, error) {
	if owner == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if owner.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	if issue.ReportedBy.ID != owner.ID {
		return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
	}
	if issue.IsBoosted {
		return nil, apperrors.NewConflict("issue is already boosted", map[string]any{"issue_id": issueID})
	}

	session, err := s.provider.CreateSession(ctx, payments.CreateSessionInput{
		AmountCents: s.cfg.BoostAmountCents,
		Currency:    s.cfg.Currency,
		Description: fmt.Sprintf("Boost for issue %s", issue.TrackingKey),
		Metadata:    map[string]string{payments.MetadataIssueID: issue.ID},
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &CheckoutRef{SessionID: session.ID, URL: session.URL}, nil
}

// ConfirmBoost verifies a completed session for the issue and applies the
// boost exactly once. Re-confirming an already-boosted issue is a no-op that
// returns current state.
func (s *PaymentService) ConfirmBoost(ctx context.Context, actor *domain.User, issueID, sessionID string) (*domain.Issue, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if actor.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}

	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if session.Metadata[payments.MetadataIssueID] != issueID {
		return nil, apperrors.NewPaymentSessionMismatch()
	}
	if session.Status != payments.SessionStatusComplete {
		return nil, apperrors.NewPaymentNotCompleted()
	}

	recorded, err := s.payments.RecordOnce(ctx, &domain.Payment{
		SessionID:   session.ID,
		Kind:        domain.PaymentKindBoost,
		IssueID:     &issueID,
		UserID:      &actor.ID,
		AmountCents: session.AmountCents,
		Currency:    session.Currency,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	applied, err := s.issues.MarkBoosted(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if !applied {
		// already boosted; duplicate confirmation applies nothing
		if recorded {
			s.logger.Warn("new session confirmed for already boosted issue",
				zap.String("issue_id", issueID), zap.String("session_id", sessionID))
		}
		return issue, nil
	}

	if err := s.timeline.Append(ctx, &domain.TimelineEntry{
		IssueID:   issue.ID,
		Action:    domain.TimelineActionBoosted,
		Message:   "Issue boosted to High priority",
		ActorName: actor.Name,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueBoosted,
		IssueID: issue.ID,
		Actor:   actorFor(actor),
		Payload: events.IssueBoostedPayload{SessionID: sessionID},
	})
	return issue, nil
}

// CreatePremiumSession opens a checkout session for the caller's premium
// subscription.
func (s *PaymentService) CreatePremiumSession(ctx context.Context, user *domain.User) (*CheckoutRef, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if user.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}
	if user.IsPremium {
		return nil, apperrors.NewConflict("already subscribed to premium", nil)
	}

	session, err := s.provider.CreateSession(ctx, payments.CreateSessionInput{
		AmountCents: s.cfg.PremiumAmountCents,
		Currency:    s.cfg.Currency,
		Description: "Premium subscription",
		Metadata:    map[string]string{payments.MetadataUserID: user.ID},
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &CheckoutRef{SessionID: session.ID, URL: session.URL}, nil
}

// ConfirmPremium verifies a completed session for the user and activates
// premium exactly once. Duplicate confirmations apply no side effects.
func (s *PaymentService) ConfirmPremium(ctx context.Context, user *domain.User, sessionID string) (*domain.User, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if user.IsBlocked {
		return nil, apperrors.NewForbidden("account is blocked")
	}

	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if session.Metadata[payments.MetadataUserID] != user.ID {
		return nil, apperrors.NewPaymentSessionMismatch()
	}
	if session.Status != payments.SessionStatusComplete {
		return nil, apperrors.NewPaymentNotCompleted()
	}

	if _, err := s.payments.RecordOnce(ctx, &domain.Payment{
		SessionID:   session.ID,
		Kind:        domain.PaymentKindPremium,
		UserID:      &user.ID,
		AmountCents: session.AmountCents,
		Currency:    session.Currency,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	applied, err := s.users.SetPremium(ctx, user.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	updated, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if applied {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:  events.EventPremiumActivated,
			Actor: actorFor(updated),
			Payload: events.PremiumActivatedPayload{
				UserID:    updated.ID,
				SessionID: sessionID,
			},
		})
	}
	return updated, nil
}

// History lists confirmed payments, newest first. Admin surface.
func (s *PaymentService) History(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	records, err := s.payments.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}
