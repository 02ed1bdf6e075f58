package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/league-ledger/internal/domain"
)

type lockerRepository struct {
	db *sqlx.DB
}

func NewLockerRepository(db *sqlx.DB) LockerRepository {
	return &lockerRepository{db: db}
}

const rentalColumns = `id, locker_id, member_id, start_date, end_date, payment_status, amount_paid, is_active, created_at`

func (r *lockerRepository) CreateLocker(ctx context.Context, locker *domain.Locker) error {
	query := r.db.Rebind(`
		INSERT INTO lockers (id, number, location, rental_rate, rental_period)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		locker.ID,
		locker.Number,
		locker.Location,
		locker.RentalRate,
		locker.RentalPeriod,
	)

	return translateConstraintViolation(err)
}

func (r *lockerRepository) GetLocker(ctx context.Context, id uuid.UUID) (*domain.Locker, error) {
	query := r.db.Rebind(`
		SELECT id, number, location, rental_rate, rental_period
		FROM lockers
		WHERE id = ?
	`)

	var locker domain.Locker
	if err := r.db.GetContext(ctx, &locker, query, id); err != nil {
		return nil, translateNotFound(err)
	}

	return &locker, nil
}

func (r *lockerRepository) CreateRental(ctx context.Context, rental *domain.LockerRental) error {
	query := r.db.Rebind(`
		INSERT INTO locker_rentals (` + rentalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		rental.ID,
		rental.LockerID,
		rental.MemberID,
		rental.StartDate,
		rental.EndDate,
		rental.PaymentStatus,
		rental.AmountPaid,
		rental.IsActive,
		rental.CreatedAt,
	)

	return translateConstraintViolation(err)
}

func (r *lockerRepository) ListActiveRentalsEndingOn(ctx context.Context, date time.Time) ([]*domain.LockerRental, error) {
	query := r.db.Rebind(`
		SELECT ` + rentalColumns + `
		FROM locker_rentals
		WHERE is_active = ? AND end_date = ?
		ORDER BY created_at
	`)

	var rentals []*domain.LockerRental
	if err := r.db.SelectContext(ctx, &rentals, query, true, date); err != nil {
		return nil, err
	}

	return rentals, nil
}
