package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/payments"
	"github.com/spec-kit/civic-issue-service/internal/repository"
)

// In-memory repository fakes mirroring the conditional-update contracts of the
// Postgres implementations.

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User

	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) add(user *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		f.seq++
		user.ID = "user-" + strconv.Itoa(f.seq)
	}
	clone := *user
	f.users[user.ID] = &clone
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(user)
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByExternalUID(ctx context.Context, uid string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ExternalUID == uid {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (f *fakeUserRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsBlocked = blocked
	return nil
}

func (f *fakeUserRepo) SetPremium(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return false, nil
	}
	if user.IsPremium {
		return false, nil
	}
	user.IsPremium = true
	return true, nil
}

func (f *fakeUserRepo) ReserveIssueSlot(ctx context.Context, id string, freeLimit int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return false, nil
	}
	if !user.IsPremium && user.IssueCount >= freeLimit {
		return false, nil
	}
	user.IssueCount++
	return true, nil
}

func (f *fakeUserRepo) ReleaseIssueSlot(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok && user.IssueCount > 0 {
		user.IssueCount--
	}
	return nil
}

type fakeIssueRepo struct {
	mu     sync.Mutex
	seq    int
	issues map[string]*domain.Issue

	createErr error
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[string]*domain.Issue)}
}

func (f *fakeIssueRepo) add(issue *domain.Issue) *domain.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue.ID == "" {
		f.seq++
		issue.ID = "issue-" + strconv.Itoa(f.seq)
	}
	clone := cloneIssue(issue)
	f.issues[issue.ID] = clone
	return issue
}

func cloneIssue(issue *domain.Issue) *domain.Issue {
	clone := *issue
	clone.UpvotedBy = append([]string(nil), issue.UpvotedBy...)
	if issue.AssignedStaff != nil {
		staff := *issue.AssignedStaff
		clone.AssignedStaff = &staff
	}
	return &clone
}

func (f *fakeIssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(issue)
	return nil
}

func (f *fakeIssueRepo) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneIssue(issue), nil
}

func (f *fakeIssueRepo) List(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Issue
	for _, issue := range f.issues {
		if filter.Status != nil && issue.Status != *filter.Status {
			continue
		}
		if filter.BoostedOnly && !issue.IsBoosted {
			continue
		}
		result = append(result, *cloneIssue(issue))
	}
	return result, nil
}

func (f *fakeIssueRepo) ListByReporter(ctx context.Context, userID string) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Issue
	for _, issue := range f.issues {
		if issue.ReportedBy.ID == userID {
			result = append(result, *cloneIssue(issue))
		}
	}
	return result, nil
}

func (f *fakeIssueRepo) ListByAssignedStaff(ctx context.Context, staffID string) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Issue
	for _, issue := range f.issues {
		if issue.AssignedStaff != nil && issue.AssignedStaff.ID == staffID {
			result = append(result, *cloneIssue(issue))
		}
	}
	return result, nil
}

func (f *fakeIssueRepo) UpdateDetails(ctx context.Context, issue *domain.Issue) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.issues[issue.ID]
	if !ok || stored.Status != domain.IssueStatusPending {
		return false, nil
	}
	stored.Title = issue.Title
	stored.Description = issue.Description
	stored.Category = issue.Category
	stored.Location = issue.Location
	stored.ImageURL = issue.ImageURL
	return true, nil
}

func (f *fakeIssueRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.issues, id)
	return nil
}

func (f *fakeIssueRepo) AddUpvote(ctx context.Context, issueID, userID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok {
		return 0, false, pgx.ErrNoRows
	}
	for _, id := range issue.UpvotedBy {
		if id == userID {
			return issue.Upvotes, false, nil
		}
	}
	if issue.ReportedBy.ID == userID {
		return issue.Upvotes, false, nil
	}
	issue.UpvotedBy = append(issue.UpvotedBy, userID)
	issue.Upvotes++
	return issue.Upvotes, true, nil
}

func (f *fakeIssueRepo) RemoveUpvote(ctx context.Context, issueID, userID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok {
		return 0, false, pgx.ErrNoRows
	}
	for i, id := range issue.UpvotedBy {
		if id == userID {
			issue.UpvotedBy = append(issue.UpvotedBy[:i], issue.UpvotedBy[i+1:]...)
			issue.Upvotes--
			return issue.Upvotes, true, nil
		}
	}
	return issue.Upvotes, false, nil
}

func (f *fakeIssueRepo) Assign(ctx context.Context, issueID string, staff domain.StaffRef) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok || issue.Status != domain.IssueStatusPending || issue.AssignedStaff != nil {
		return false, nil
	}
	issue.Status = domain.IssueStatusAssigned
	issue.AssignedStaff = &staff
	return true, nil
}

func (f *fakeIssueRepo) Reject(ctx context.Context, issueID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok || issue.Status != domain.IssueStatusPending || issue.AssignedStaff != nil {
		return false, nil
	}
	issue.Status = domain.IssueStatusRejected
	return true, nil
}

func (f *fakeIssueRepo) TransitionStatus(ctx context.Context, issueID string, from, to domain.IssueStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok || issue.Status != from {
		return false, nil
	}
	issue.Status = to
	return true, nil
}

func (f *fakeIssueRepo) MarkBoosted(ctx context.Context, issueID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok || issue.IsBoosted {
		return false, nil
	}
	issue.IsBoosted = true
	issue.Priority = domain.IssuePriorityHigh
	return true, nil
}

type fakeTimelineRepo struct {
	mu      sync.Mutex
	seq     int
	entries []domain.TimelineEntry
}

func newFakeTimelineRepo() *fakeTimelineRepo {
	return &fakeTimelineRepo{}
}

func (f *fakeTimelineRepo) Append(ctx context.Context, entry *domain.TimelineEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	entry.ID = "entry-" + strconv.Itoa(f.seq)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeTimelineRepo) ListByIssue(ctx context.Context, issueID string) ([]domain.TimelineEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.TimelineEntry
	for _, entry := range f.entries {
		if entry.IssueID == issueID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	seq      int
	payments map[string]domain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]domain.Payment)}
}

func (f *fakePaymentRepo) RecordOnce(ctx context.Context, payment *domain.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[payment.SessionID]; ok {
		return false, nil
	}
	f.seq++
	payment.ID = "payment-" + strconv.Itoa(f.seq)
	f.payments[payment.SessionID] = *payment
	return true, nil
}

func (f *fakePaymentRepo) ListAll(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Payment
	for _, payment := range f.payments {
		result = append(result, payment)
	}
	return result, nil
}

type fakePaymentProvider struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*payments.Session

	createErr error
}

func newFakePaymentProvider() *fakePaymentProvider {
	return &fakePaymentProvider{sessions: make(map[string]*payments.Session)}
}

func (f *fakePaymentProvider) CreateSession(ctx context.Context, input payments.CreateSessionInput) (*payments.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	session := &payments.Session{
		ID:          "sess-" + strconv.Itoa(f.seq),
		URL:         "https://checkout.example.com/sess-" + strconv.Itoa(f.seq),
		Status:      payments.SessionStatusOpen,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		Metadata:    input.Metadata,
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakePaymentProvider) GetSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *session
	return &clone, nil
}

func (f *fakePaymentProvider) complete(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[sessionID]; ok {
		session.Status = payments.SessionStatusComplete
	}
}
