package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

const userColumns = `id, external_uid, name, email, avatar_url, role, is_premium, is_blocked, issue_count, password_hash, created_at, updated_at`

// UserFilter captures admin listing parameters.
type UserFilter struct {
	Role   *domain.Role
	Search *string
	Limit  int
	Offset int
}

// UserRepository defines persistence access for user records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByExternalUID(ctx context.Context, uid string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	// SetPremium flips is_premium false to true. Returns false when the user
	// was already premium, so duplicate confirmations apply nothing.
	SetPremium(ctx context.Context, id string) (bool, error)
	// ReserveIssueSlot atomically increments issue_count when the user is
	// premium or still under the free limit. Returns false when the quota is
	// exhausted; no read-modify-write in application code.
	ReserveIssueSlot(ctx context.Context, id string, freeLimit int) (bool, error)
	// ReleaseIssueSlot decrements issue_count with a floor of zero.
	ReleaseIssueSlot(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (external_uid, name, email, avatar_url, role, is_premium, is_blocked, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, issue_count, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ExternalUID,
		user.Name,
		user.Email,
		user.AvatarURL,
		user.Role,
		user.IsPremium,
		user.IsBlocked,
		user.PasswordHash,
	).Scan(&user.ID, &user.IssueCount, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, avatar_url=$3, role=$4, password_hash=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.AvatarURL,
		user.Role,
		user.PasswordHash,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByExternalUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE external_uid=$1`, uid)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.ExternalUID,
		&user.Name,
		&user.Email,
		&user.AvatarURL,
		&user.Role,
		&user.IsPremium,
		&user.IsBlocked,
		&user.IssueCount,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.ExternalUID,
			&user.Name,
			&user.Email,
			&user.AvatarURL,
			&user.Role,
			&user.IsPremium,
			&user.IsBlocked,
			&user.IssueCount,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET is_blocked=$1, updated_at=NOW() WHERE id=$2`, blocked, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetPremium(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET is_premium=TRUE, updated_at=NOW() WHERE id=$1 AND is_premium=FALSE`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) ReserveIssueSlot(ctx context.Context, id string, freeLimit int) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET issue_count = issue_count + 1, updated_at=NOW()
         WHERE id=$1 AND (is_premium OR issue_count < $2)`, id, freeLimit)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) ReleaseIssueSlot(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET issue_count = GREATEST(issue_count - 1, 0), updated_at=NOW() WHERE id=$1`, id)
	return err
}
