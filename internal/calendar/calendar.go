// Package calendar derives the weekly schedule of a league.
package calendar

import (
	"time"

	"github.com/segyhp/league-ledger/pkg/utils"
)

// DaysPerWeek is the fixed stride between league weeks.
const DaysPerWeek = 7

// Week is one bowling night of a league.
type Week struct {
	Number int       `json:"number"`
	Date   time.Time `json:"date"`
}

// WeeksFor returns the ordered weeks between start and finish inclusive.
// Week 1 falls on start; week n on start + 7(n-1) days. A finish before start
// still yields the single opening week.
func WeeksFor(start, finish time.Time) []Week {
	start = utils.DateOnly(start)
	finish = utils.DateOnly(finish)

	n := WeeksIn(start, finish)
	weeks := make([]Week, 0, n)
	for week := 1; week <= n; week++ {
		weeks = append(weeks, Week{
			Number: week,
			Date:   DateOf(start, week),
		})
	}

	return weeks
}

// WeeksIn returns ceil((finish-start+1)/7), never less than 1.
func WeeksIn(start, finish time.Time) int {
	days := utils.DaysBetween(start, finish)
	if days < 0 {
		return 1
	}
	return days/DaysPerWeek + 1
}

// DateOf returns the date of the given week number.
func DateOf(start time.Time, week int) time.Time {
	return utils.AddDays(start, DaysPerWeek*(week-1))
}

// WeekOf returns the number of the league week whose night falls on date,
// or 0 when date is not a league night.
func WeekOf(start, finish, date time.Time) int {
	days := utils.DaysBetween(start, date)
	if days < 0 || days%DaysPerWeek != 0 {
		return 0
	}

	week := days/DaysPerWeek + 1
	if week > WeeksIn(start, finish) {
		return 0
	}

	return week
}

// Contains reports whether week is a valid week number for the league.
func Contains(start, finish time.Time, week int) bool {
	return week >= 1 && week <= WeeksIn(start, finish)
}
