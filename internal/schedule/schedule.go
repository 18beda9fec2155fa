// Package schedule holds the calendar arithmetic of the booking window:
// weeks start on Monday and only weekdays are bookable.
package schedule

import (
	"time"

	"slotbook/internal/models"
)

// WeekStart returns the Monday of the week containing d.
func WeekStart(d models.Date) models.Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// Window returns the weekdays of the given number of weeks starting at the
// Monday of the week containing from.
func Window(from models.Date, weeks int) []models.Date {
	if weeks <= 0 {
		return nil
	}
	start := WeekStart(from)
	days := make([]models.Date, 0, weeks*5)
	for i := 0; i < weeks*7; i++ {
		day := start.AddDays(i)
		if day.IsWeekday() {
			days = append(days, day)
		}
	}
	return days
}

// WindowBounds returns the first and last weekday of Window(from, weeks).
func WindowBounds(from models.Date, weeks int) (models.Date, models.Date) {
	start := WeekStart(from)
	if weeks <= 0 {
		return start, start
	}
	// Friday of the last week.
	return start, start.AddDays((weeks-1)*7 + 4)
}

// MonthBounds returns the first and last calendar day of the month.
func MonthBounds(year int, month time.Month) (models.Date, models.Date) {
	first := models.NewDate(year, month, 1)
	last := models.DateOf(first.Time().AddDate(0, 1, -1))
	return first, last
}

// WeekdaysInMonth counts Monday..Friday days of the month.
func WeekdaysInMonth(year int, month time.Month) int {
	first, last := MonthBounds(year, month)
	count := 0
	for d := first; !d.After(last); d = d.AddDays(1) {
		if d.IsWeekday() {
			count++
		}
	}
	return count
}

// InWindow reports whether day is a bookable weekday inside the window that
// starts at the week of today. Days before today are outside.
func InWindow(day, today models.Date, weeks int) bool {
	if !day.IsWeekday() || day.Before(today) {
		return false
	}
	_, last := WindowBounds(today, weeks)
	return !day.After(last)
}
