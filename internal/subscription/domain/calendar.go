package domain

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const DefaultTimezone = "Asia/Kolkata"

// Calendar normalizes instants to delivery days in one time zone.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(name string) (Calendar, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("load delivery timezone %q: %w", name, err)
	}
	return Calendar{loc: loc}, nil
}

// NewCalendarIn is used by tests and callers that already hold a location.
func NewCalendarIn(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Day returns midnight of t's calendar day.
func (c Calendar) Day(t time.Time) time.Time {
	loc := c.Location()
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (c Calendar) AddDays(day time.Time, n int) time.Time {
	day = c.Day(day)
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, c.Location())
}

func (c Calendar) Tomorrow(now time.Time) time.Time {
	return c.AddDays(now, 1)
}

// Window returns the inclusive [first, last] days of a validity period starting at anchor.
func (c Calendar) Window(anchor time.Time, validityDays int) (time.Time, time.Time) {
	first := c.Day(anchor)
	return first, c.AddDays(first, validityDays-1)
}

func (c Calendar) Contains(first, last, day time.Time) bool {
	day = c.Day(day)
	return !day.Before(c.Day(first)) && !day.After(c.Day(last))
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return c.Day(a).Equal(c.Day(b))
}

// FormatDay renders a day as YYYY-MM-DD in the delivery zone.
func (c Calendar) FormatDay(t time.Time) string {
	return c.Day(t).Format(time.DateOnly)
}

// ParseDay accepts YYYY-MM-DD or RFC3339 input.
func (c Calendar) ParseDay(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, raw, c.Location()); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return c.Day(t), nil
}
