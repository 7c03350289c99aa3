// AngelaMos | 2026
// repository.go

package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ltl-studio/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error)
	List(ctx context.Context) ([]Booking, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const bookingColumns = `id, client_name, client_email, service_type, session_format,
		       preferred_date, experience_level, project_description, status,
		       price, payment_intent_id, created_at`

func (r *repository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (
			id, client_name, client_email, service_type, session_format,
			preferred_date, experience_level, project_description, status,
			price, payment_intent_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.ClientName,
		b.ClientEmail,
		b.ServiceType,
		b.SessionFormat,
		b.PreferredDate,
		b.ExperienceLevel,
		b.ProjectDescription,
		b.Status,
		b.Price,
		b.PaymentIntentID,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get booking: %w", core.ErrNotFound)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b Booking
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get booking: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return &b, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	status Status,
) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("update booking status: %w", core.ErrNotFound)
	}

	query := `
		UPDATE bookings
		SET status = $2
		WHERE id = $1
		RETURNING ` + bookingColumns

	var b Booking
	err := r.db.GetContext(ctx, &b, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update booking status: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	return &b, nil
}

func (r *repository) List(ctx context.Context) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings`); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}
