package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// PaymentRepository stores confirmed checkout sessions. The unique session id
// makes RecordOnce the idempotency gate for webhook/redirect retries.
type PaymentRepository interface {
	// RecordOnce inserts the payment unless its session id was seen before.
	// Returns false on a duplicate.
	RecordOnce(ctx context.Context, payment *domain.Payment) (bool, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Payment, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository builds repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

func (r *paymentRepository) RecordOnce(ctx context.Context, payment *domain.Payment) (bool, error) {
	const query = `
        INSERT INTO payments (session_id, kind, issue_id, user_id, amount_cents, currency)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (session_id) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query,
		payment.SessionID,
		payment.Kind,
		payment.IssueID,
		payment.UserID,
		payment.AmountCents,
		payment.Currency,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *paymentRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, session_id, kind, issue_id, user_id, amount_cents, currency, created_at
        FROM payments ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.SessionID,
			&payment.Kind,
			&payment.IssueID,
			&payment.UserID,
			&payment.AmountCents,
			&payment.Currency,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}
