package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/pkg/database"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
	"github.com/Mehidi-hridoy/dokan/pkg/pagination"
)

// SubscriberRepository implements repository.SubscriberRepository using
// PostgreSQL.
type SubscriberRepository struct {
	db database.DBTX
}

// NewSubscriberRepository creates a new PostgreSQL-backed subscriber
// repository.
func NewSubscriberRepository(db database.DBTX) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Create inserts a new subscriber. Uses ON CONFLICT DO NOTHING so repeated
// signups do not error at the database; a zero-row insert is reported as
// AlreadyExists.
func (r *SubscriberRepository) Create(ctx context.Context, sub *domain.Subscriber) error {
	query := `
		INSERT INTO subscribers (id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING`

	ct, err := r.db.Exec(ctx, query, sub.ID, sub.Email, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.AlreadyExists("subscriber", "email", sub.Email)
	}

	return nil
}

// GetByEmail retrieves a subscriber by email address.
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	query := `
		SELECT id, email, created_at
		FROM subscribers
		WHERE email = $1`

	var sub domain.Subscriber
	err := r.db.QueryRow(ctx, query, email).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("subscriber", email)
		}
		return nil, fmt.Errorf("scan subscriber: %w", err)
	}

	return &sub, nil
}

// List returns subscribers newest first with the total count.
func (r *SubscriberRepository) List(ctx context.Context, p pagination.Params) ([]domain.Subscriber, int, error) {
	query := `
		SELECT id, email, created_at, count(*) OVER() AS total_count
		FROM subscribers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, p.PerPage, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var (
		subs       []domain.Subscriber
		totalCount int
	)

	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("scan subscriber row: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate subscriber rows: %w", err)
	}

	if subs == nil {
		subs = []domain.Subscriber{}
	}

	return subs, totalCount, nil
}
