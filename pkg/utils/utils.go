package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC of its calendar day in t's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar day n days after date.
func AddDays(date time.Time, n int) time.Time {
	return DateOnly(date).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// RoundMoney rounds an amount to 2 decimal places for currency
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
