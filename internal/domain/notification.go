package domain

import (
	"fmt"
	"time"
)

// Rule identifiers. Locker rules carry the offset so each offset fires once per rental.
const (
	RuleLockerExpiryMember  = "locker_expiry_member"
	RuleLockerExpiryStaff   = "locker_expiry_staff"
	RuleOutstandingBalance  = "outstanding_balance"
	RuleRegistrationInvalid = "registration_invalid"
	RuleLeagueBroadcast     = "league_broadcast"
)

const (
	FiringStatusPending = "pending"
	FiringStatusSent    = "sent"
	FiringStatusFailed  = "failed"
)

// LockerRuleID returns the rule id of a locker reminder for the given offset.
func LockerRuleID(base string, offsetDays int) string {
	return fmt.Sprintf("%s_%dd", base, offsetDays)
}

// FiringKey identifies one notification trigger. Absence of a firing with
// this key means the trigger has not fired for that date.
type FiringKey struct {
	RuleID      string    `json:"rule_id" db:"rule_id"`
	EntityID    string    `json:"entity_id" db:"entity_id"`
	TriggerDate time.Time `json:"trigger_date" db:"trigger_date"`
}

func (k FiringKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.RuleID, k.EntityID, k.TriggerDate.Format("2006-01-02"))
}

// NotificationFiring records that a rule fired for an entity on a date.
type NotificationFiring struct {
	FiringKey
	Status     string    `json:"status" db:"status"`
	Recipients int       `json:"recipients" db:"recipients"`
	Error      string    `json:"error,omitempty" db:"error"`
	FiredAt    time.Time `json:"fired_at" db:"fired_at"`
}

// RunReport summarises one scheduler run.
type RunReport struct {
	Date       time.Time `json:"date"`
	Manual     bool      `json:"manual"`
	Fired      int       `json:"fired"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Errors     []string  `json:"errors,omitempty"`
}

type RunRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type TestNotificationRequest struct {
	Recipient string `json:"recipient" validate:"required"`
}

// BroadcastRequest is a free-form message to every member of a league.
type BroadcastRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// BroadcastReport counts the outcome of one league broadcast.
type BroadcastReport struct {
	LeagueID string   `json:"league_id"`
	Sent     int      `json:"sent"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
