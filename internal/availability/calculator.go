// Package availability computes deterministic per-day booking capacity.
// The rule is a pure function of the calendar date, so the same date
// always yields the same slot count regardless of caller or load.
package availability

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates. Dates carry no time
// zone; they are normalized to UTC midnight internally.
const DateLayout = "2006-01-02"

const (
	baselineSlots = 5
	saturdaySlots = 2
)

// timeLabels are the canonical time-of-day labels, identical on every
// bookable day.
var timeLabels = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00",
}

// DayAvailability describes one calendar day of a provider's month view.
type DayAvailability struct {
	Date           string   `json:"date"`
	RemainingSlots int      `json:"remaining_slots"`
	IsBookable     bool     `json:"is_bookable"`
	TimeLabels     []string `json:"time_labels,omitempty"`
}

// Calculator applies the availability rule. The current date is injected
// so tests are reproducible.
type Calculator struct {
	now             func() time.Time
	maintenanceDays map[int]bool
}

// NewCalculator creates a calculator closing two days of each month for
// maintenance. A nil now defaults to time.Now.
func NewCalculator(maintenanceDays []int, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	closed := make(map[int]bool, len(maintenanceDays))
	for _, d := range maintenanceDays {
		closed[d] = true
	}
	return &Calculator{now: now, maintenanceDays: closed}
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("availability: invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SlotsForDate returns the open slot count for the date and whether the
// date is bookable. Rules apply in order: past dates and Sundays are
// closed, then the maintenance days, then the reduced Saturday count,
// then the weekday baseline with a small day-of-month modulation.
func (c *Calculator) SlotsForDate(date time.Time) (remaining int, bookable bool) {
	if c.isPast(date) {
		return 0, false
	}
	if date.Weekday() == time.Sunday {
		return 0, false
	}
	if c.maintenanceDays[date.Day()] {
		return 0, false
	}
	if date.Weekday() == time.Saturday {
		return saturdaySlots, true
	}
	return baselineSlots + date.Day()%3, true
}

// TimeLabels returns the fixed ordered slot labels shared by all
// bookable days.
func (c *Calculator) TimeLabels() []string {
	out := make([]string, len(timeLabels))
	copy(out, timeLabels)
	return out
}

// HasTimeLabel reports whether label is one of the canonical slot labels.
func (c *Calculator) HasTimeLabel(label string) bool {
	for _, l := range timeLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Month returns availability for every day of the given calendar month.
func (c *Calculator) Month(year int, month time.Month) []DayAvailability {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := make([]DayAvailability, 0, 31)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		remaining, bookable := c.SlotsForDate(d)
		day := DayAvailability{
			Date:           FormatDate(d),
			RemainingSlots: remaining,
			IsBookable:     bookable,
		}
		if bookable {
			day.TimeLabels = c.TimeLabels()
		}
		days = append(days, day)
	}
	return days
}

func (c *Calculator) isPast(date time.Time) bool {
	now := c.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	normalized := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return normalized.Before(today)
}
