package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

const issueColumns = `id, tracking_key, title, description, category, location, image_url,
               status, priority, upvotes, upvoted_by, reported_by_id, reported_by_name, reported_by_email,
               assigned_staff_id, assigned_staff_name, is_boosted, created_at, updated_at`

// IssueFilter captures public listing parameters.
type IssueFilter struct {
	Status      *domain.IssueStatus
	Category    *domain.IssueCategory
	BoostedOnly bool
	Search      *string
	Limit       int
	Offset      int
}

// IssueRepository encapsulates issue persistence. Mutations that race across
// requests (upvotes, status, boost) are single conditional SQL statements so
// concurrent writers never lose updates.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ListByReporter(ctx context.Context, userID string) ([]domain.Issue, error)
	ListByAssignedStaff(ctx context.Context, staffID string) ([]domain.Issue, error)
	// UpdateDetails writes the owner-editable fields, guarded on PENDING
	// status. Returns false when the issue has already left PENDING.
	UpdateDetails(ctx context.Context, issue *domain.Issue) (bool, error)
	Delete(ctx context.Context, id string) error
	// AddUpvote appends the voter conditionally on non-membership and bumps
	// the counter in the same statement. Applied=false means the voter was
	// already present (or is the reporter).
	AddUpvote(ctx context.Context, issueID, userID string) (upvotes int, applied bool, err error)
	// RemoveUpvote is the conditional inverse of AddUpvote.
	RemoveUpvote(ctx context.Context, issueID, userID string) (upvotes int, applied bool, err error)
	// Assign moves PENDING -> ASSIGNED and snapshots the staff member, only
	// while the issue is pending and unassigned.
	Assign(ctx context.Context, issueID string, staff domain.StaffRef) (bool, error)
	// Reject moves PENDING -> REJECTED while unassigned.
	Reject(ctx context.Context, issueID string) (bool, error)
	// TransitionStatus compare-and-sets the status against its expected
	// current value. Applied=false means the persisted status moved.
	TransitionStatus(ctx context.Context, issueID string, from, to domain.IssueStatus) (bool, error)
	// MarkBoosted flips is_boosted one way and raises priority to HIGH.
	// Applied=false means the issue was already boosted.
	MarkBoosted(ctx context.Context, issueID string) (bool, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (tracking_key, title, description, category, location, image_url,
                            status, priority, reported_by_id, reported_by_name, reported_by_email)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, upvotes, upvoted_by, is_boosted, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.TrackingKey,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.ImageURL,
		issue.Status,
		issue.Priority,
		issue.ReportedBy.ID,
		issue.ReportedBy.Name,
		issue.ReportedBy.Email,
	).Scan(&issue.ID, &issue.Upvotes, &issue.UpvotedBy, &issue.IsBoosted, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+issueColumns+` FROM issues WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &issues[0], nil
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.BoostedOnly {
		clauses = append(clauses, "is_boosted")
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(location) LIKE %s OR LOWER(category) LIKE %s OR LOWER(description) LIKE %s)",
			placeholder, placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Boosted issues first, then High priority, then newest.
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s
        ORDER BY is_boosted DESC, CASE priority WHEN 'HIGH' THEN 0 ELSE 1 END, created_at DESC
        LIMIT %d OFFSET %d`,
		issueColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListByReporter(ctx context.Context, userID string) ([]domain.Issue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE reported_by_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListByAssignedStaff(ctx context.Context, staffID string) ([]domain.Issue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE assigned_staff_id=$1
         ORDER BY is_boosted DESC, CASE priority WHEN 'HIGH' THEN 0 ELSE 1 END, created_at DESC`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) UpdateDetails(ctx context.Context, issue *domain.Issue) (bool, error) {
	const query = `
        UPDATE issues SET title=$1, description=$2, category=$3, location=$4, image_url=$5, updated_at=NOW()
        WHERE id=$6 AND status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.ImageURL,
		issue.ID,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) AddUpvote(ctx context.Context, issueID, userID string) (int, bool, error) {
	const query = `
        UPDATE issues
        SET upvoted_by = array_append(upvoted_by, $2), upvotes = upvotes + 1, updated_at=NOW()
        WHERE id=$1 AND NOT ($2 = ANY(upvoted_by)) AND reported_by_id::text <> $2
        RETURNING upvotes`
	var upvotes int
	err := r.pool.QueryRow(ctx, query, issueID, userID).Scan(&upvotes)
	if err == pgx.ErrNoRows {
		return r.currentUpvotes(ctx, issueID)
	}
	if err != nil {
		return 0, false, err
	}
	return upvotes, true, nil
}

func (r *issueRepository) RemoveUpvote(ctx context.Context, issueID, userID string) (int, bool, error) {
	const query = `
        UPDATE issues
        SET upvoted_by = array_remove(upvoted_by, $2), upvotes = upvotes - 1, updated_at=NOW()
        WHERE id=$1 AND $2 = ANY(upvoted_by)
        RETURNING upvotes`
	var upvotes int
	err := r.pool.QueryRow(ctx, query, issueID, userID).Scan(&upvotes)
	if err == pgx.ErrNoRows {
		return r.currentUpvotes(ctx, issueID)
	}
	if err != nil {
		return 0, false, err
	}
	return upvotes, true, nil
}

func (r *issueRepository) currentUpvotes(ctx context.Context, issueID string) (int, bool, error) {
	var upvotes int
	if err := r.pool.QueryRow(ctx, `SELECT upvotes FROM issues WHERE id=$1`, issueID).Scan(&upvotes); err != nil {
		return 0, false, err
	}
	return upvotes, false, nil
}

func (r *issueRepository) Assign(ctx context.Context, issueID string, staff domain.StaffRef) (bool, error) {
	const query = `
        UPDATE issues SET status='ASSIGNED', assigned_staff_id=$2, assigned_staff_name=$3, updated_at=NOW()
        WHERE id=$1 AND status='PENDING' AND assigned_staff_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, issueID, staff.ID, staff.Name)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *issueRepository) Reject(ctx context.Context, issueID string) (bool, error) {
	const query = `
        UPDATE issues SET status='REJECTED', updated_at=NOW()
        WHERE id=$1 AND status='PENDING' AND assigned_staff_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, issueID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *issueRepository) TransitionStatus(ctx context.Context, issueID string, from, to domain.IssueStatus) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE issues SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`,
		issueID, from, to)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *issueRepository) MarkBoosted(ctx context.Context, issueID string) (bool, error) {
	const query = `
        UPDATE issues SET is_boosted=TRUE, priority='HIGH', updated_at=NOW()
        WHERE id=$1 AND is_boosted=FALSE`
	cmd, err := r.pool.Exec(ctx, query, issueID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		var assignedID, assignedName *string
		if err := rows.Scan(
			&issue.ID,
			&issue.TrackingKey,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.Location,
			&issue.ImageURL,
			&issue.Status,
			&issue.Priority,
			&issue.Upvotes,
			&issue.UpvotedBy,
			&issue.ReportedBy.ID,
			&issue.ReportedBy.Name,
			&issue.ReportedBy.Email,
			&assignedID,
			&assignedName,
			&issue.IsBoosted,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if assignedID != nil {
			name := ""
			if assignedName != nil {
				name = *assignedName
			}
			issue.AssignedStaff = &domain.StaffRef{ID: *assignedID, Name: name}
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
