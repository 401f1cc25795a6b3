// Package billing derives a revolving-credit card's billing cycle and payment
// due date from its cut-off day. All functions are pure date arithmetic with
// day granularity; inputs are normalized to midnight UTC.
package billing

import (
	"time"

	"github.com/centavoapp/backend/internal/domain/errors"
)

// Cycle describes the billing cycle whose debt is currently owed, together
// with the upcoming payment due date.
type Cycle struct {
	// CycleStart is the first day of charges bundled into the statement.
	CycleStart time.Time
	// CycleEnd is the cut-off date closing the statement (inclusive).
	CycleEnd time.Time
	// DueDate is the day the statement must be paid by (inclusive).
	DueDate time.Time
}

// normalize truncates a timestamp to its UTC calendar day
func normalize(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// cutOffIn builds the cut-off date for the month containing ref, clamping the
// requested day into the month's valid range (day 31 in a 30-day month clamps
// to the 30th).
func cutOffIn(ref time.Time, cutOffDay int) time.Time {
	y, m, _ := ref.UTC().Date()
	lastDay := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := cutOffDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// nextCutOff returns the clamped cut-off date in the month after c. The day
// is always re-derived from cutOffDay, so a clamped February 29th rolls back
// out to March 31st for a day-31 card.
func nextCutOff(c time.Time, cutOffDay int) time.Time {
	firstOfNext := time.Date(c.Year(), c.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return cutOffIn(firstOfNext, cutOffDay)
}

func prevCutOff(c time.Time, cutOffDay int) time.Time {
	firstOfPrev := time.Date(c.Year(), c.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	return cutOffIn(firstOfPrev, cutOffDay)
}

func validate(cutOffDay, graceDays int) error {
	if cutOffDay < 1 || cutOffDay > 31 {
		return errors.NewValidationError("cut-off day must be between 1 and 31")
	}
	if graceDays < 0 {
		return errors.NewValidationError("grace days must not be negative")
	}
	return nil
}

// UpcomingCutOff returns the next cut-off date on or after the reference
// date. A reference date landing exactly on the cut-off day counts as this
// month's cut-off; the cycle has not rolled over yet.
func UpcomingCutOff(cutOffDay int, ref time.Time) (time.Time, error) {
	if err := validate(cutOffDay, 0); err != nil {
		return time.Time{}, err
	}
	day := normalize(ref)
	c := cutOffIn(day, cutOffDay)
	if c.Before(day) {
		c = nextCutOff(c, cutOffDay)
	}
	return c, nil
}

// UpcomingDueDate returns the payment due date attached to the upcoming
// cut-off: cut-off plus the grace period.
func UpcomingDueDate(cutOffDay, graceDays int, ref time.Time) (time.Time, error) {
	if err := validate(cutOffDay, graceDays); err != nil {
		return time.Time{}, err
	}
	c, err := UpcomingCutOff(cutOffDay, ref)
	if err != nil {
		return time.Time{}, err
	}
	return c.AddDate(0, 0, graceDays), nil
}

// ComputeCycle returns the billing cycle whose debt is currently owed. The
// cycle ends at the most recent cut-off whose due date has not yet passed; a
// due date equal to today is still payable, not overdue. The cycle starts one
// day after the previous cut-off.
func ComputeCycle(cutOffDay, graceDays int, ref time.Time) (Cycle, error) {
	if err := validate(cutOffDay, graceDays); err != nil {
		return Cycle{}, err
	}
	day := normalize(ref)

	// Find the earliest cut-off whose attached due date lands on or after
	// the reference date. Long grace periods can leave more than one cycle
	// open at once; the one currently owed is the oldest of them.
	end := cutOffIn(day, cutOffDay)
	for {
		p := prevCutOff(end, cutOffDay)
		if p.AddDate(0, 0, graceDays).Before(day) {
			break
		}
		end = p
	}
	for end.AddDate(0, 0, graceDays).Before(day) {
		end = nextCutOff(end, cutOffDay)
	}

	return Cycle{
		CycleStart: prevCutOff(end, cutOffDay).AddDate(0, 0, 1),
		CycleEnd:   end,
		DueDate:    end.AddDate(0, 0, graceDays),
	}, nil
}

// FirstDueDate computes the first due date of an installment-style charge:
// the same upcoming-due-date rule applied to the charge's transaction date
// instead of today.
func FirstDueDate(cutOffDay, graceDays int, chargeDate time.Time) (time.Time, error) {
	return UpcomingDueDate(cutOffDay, graceDays, chargeDate)
}

// DaysUntilDue returns the whole days remaining until the currently owed
// cycle must be paid. Zero means the payment is due today.
func DaysUntilDue(cutOffDay, graceDays int, ref time.Time) (int, error) {
	cycle, err := ComputeCycle(cutOffDay, graceDays, ref)
	if err != nil {
		return 0, err
	}
	return int(cycle.DueDate.Sub(normalize(ref)).Hours() / 24), nil
}
