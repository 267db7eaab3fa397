package domain

import (
	"testing"
	"time"
)

func TestCalendarDayUsesDeliveryZone(t *testing.T) {
	cal := testCalendar()

	// 20:00 UTC is already 01:30 the next day in IST.
	got := cal.Day(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	if !got.Equal(day(2026, 3, 2)) {
		t.Fatalf("expected 2 March IST, got %s", got)
	}
	if !cal.Tomorrow(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)).Equal(day(2026, 3, 3)) {
		t.Fatalf("tomorrow must be computed from the local day")
	}
}

func TestCalendarWindowIsInclusive(t *testing.T) {
	cal := testCalendar()
	first, last := cal.Window(day(2026, 3, 2), 10)
	if !first.Equal(day(2026, 3, 2)) || !last.Equal(day(2026, 3, 11)) {
		t.Fatalf("unexpected window %s..%s", first, last)
	}
	if !cal.Contains(first, last, day(2026, 3, 11).Add(23*time.Hour)) {
		t.Fatalf("late evening of the last day is still inside the window")
	}
	if cal.Contains(first, last, day(2026, 3, 12)) {
		t.Fatalf("day after the window must be outside")
	}
}

func TestCalendarParseDay(t *testing.T) {
	cal := testCalendar()
	for _, raw := range []string{"2026-03-05", "2026-03-04T18:30:00Z", "2026-03-05T09:15:00+05:30"} {
		got, err := cal.ParseDay(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !got.Equal(day(2026, 3, 5)) {
			t.Fatalf("parse %q: expected 5 March, got %s", raw, got)
		}
	}
	if _, err := cal.ParseDay("next tuesday"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewCalendarDefaultsToKolkata(t *testing.T) {
	cal, err := NewCalendar("")
	if err != nil {
		t.Fatalf("new calendar: %v", err)
	}
	if cal.Location().String() != DefaultTimezone {
		t.Fatalf("expected %s, got %s", DefaultTimezone, cal.Location())
	}
	if _, err := NewCalendar("Mars/Olympus_Mons"); err == nil {
		t.Fatalf("expected unknown zone error")
	}
}
