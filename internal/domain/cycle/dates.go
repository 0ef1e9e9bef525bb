// Package cycle computes reproductive milestones and their urgency. It does no I/O.
//
// Dates are civil dates carried as time.Time values at UTC midnight (see DateOf).
// Every function panics on a zero time: a missing date reaching the engine is a
// programming error, and rows must be validated before they get here.
package cycle

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate marks a missing or zero date handed to the engine.
var ErrInvalidDate = errors.New("invalid date")

const day = 24 * time.Hour

func mustDate(name string, t time.Time) {
	if t.IsZero() {
		panic(fmt.Errorf("%w: %s is zero", ErrInvalidDate, name))
	}
}

// DateOf returns the civil date of t (in t's own location) at UTC midnight.
func DateOf(t time.Time) time.Time {
	mustDate("date", t)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the civil date of now as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	mustDate("now", now)
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// AddDays shifts a civil date by n days.
func AddDays(date time.Time, n int) time.Time {
	return DateOf(date).AddDate(0, 0, n)
}

// ExpectedFarrowingDate is breedingDate plus the gestation length.
func (p Policy) ExpectedFarrowingDate(breedingDate time.Time) time.Time {
	mustDate("breeding date", breedingDate)
	return AddDays(breedingDate, p.GestationDays)
}

// WeaningDate is birthDate plus the weaning age.
func (p Policy) WeaningDate(birthDate time.Time) time.Time {
	mustDate("birth date", birthDate)
	return AddDays(birthDate, p.WeaningAgeDays)
}

// ReturnToHeatDate is weaningDate plus the heat-return interval.
func (p Policy) ReturnToHeatDate(weaningDate time.Time) time.Time {
	mustDate("weaning date", weaningDate)
	return AddDays(weaningDate, p.HeatReturnDays)
}

// PregnancyCheckDate is breedingDate plus the pregnancy-check offset.
func (p Policy) PregnancyCheckDate(breedingDate time.Time) time.Time {
	mustDate("breeding date", breedingDate)
	return AddDays(breedingDate, p.PregnancyCheckDays)
}

// ExpectedFarrowingDate applies the default policy.
func ExpectedFarrowingDate(breedingDate time.Time) time.Time {
	return DefaultPolicy().ExpectedFarrowingDate(breedingDate)
}

// WeaningDate applies the default policy.
func WeaningDate(birthDate time.Time) time.Time {
	return DefaultPolicy().WeaningDate(birthDate)
}

// ReturnToHeatDate applies the default policy.
func ReturnToHeatDate(weaningDate time.Time) time.Time {
	return DefaultPolicy().ReturnToHeatDate(weaningDate)
}

// PregnancyCheckDate applies the default policy.
func PregnancyCheckDate(breedingDate time.Time) time.Time {
	return DefaultPolicy().PregnancyCheckDate(breedingDate)
}

// DaysBetween returns ceil((b - a) / 24h). The result is negative when b is
// before a, so DaysBetween(today, due) < 0 means the milestone is overdue.
func DaysBetween(a, b time.Time) int {
	mustDate("a", a)
	mustDate("b", b)
	d := b.Sub(a)
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return days
}
