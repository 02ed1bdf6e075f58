package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RentalPaymentPaid    = "paid"
	RentalPaymentPending = "pending"
	RentalPaymentOverdue = "overdue"
)

// Locker represents a rentable locker
type Locker struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Number       string          `json:"number" db:"number"`
	Location     string          `json:"location" db:"location"`
	RentalRate   decimal.Decimal `json:"rental_rate" db:"rental_rate"`
	RentalPeriod string          `json:"rental_period" db:"rental_period"` // monthly, quarterly, annual
}

// LockerRental tracks one member renting one locker.
// A locker has at most one active rental at a time.
type LockerRental struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	LockerID      uuid.UUID       `json:"locker_id" db:"locker_id"`
	MemberID      uuid.UUID       `json:"member_id" db:"member_id"`
	StartDate     time.Time       `json:"start_date" db:"start_date"`
	EndDate       time.Time       `json:"end_date" db:"end_date"`
	PaymentStatus string          `json:"payment_status" db:"payment_status"`
	AmountPaid    decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
