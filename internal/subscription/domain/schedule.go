package domain

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator is satisfied by *snowflake.Node.
type IDGenerator interface {
	Generate() snowflake.ID
}

// ScheduleDefaults seeds every entry of a new schedule.
type ScheduleDefaults struct {
	TimeSlot  string
	Address   string
	AddressID *snowflake.ID
	Lat       *float64
	Lng       *float64
}

// BuildSchedule validates the caller-chosen dates against the plan and returns
// the initial ledger sorted by date. The window is provisional: it is anchored
// on tomorrow relative to now, not on the start date fixed at payment.
func BuildSchedule(plan PlanSnapshot, dates []time.Time, defaults ScheduleDefaults, now time.Time, cal Calendar, ids IDGenerator) ([]ScheduleEntry, error) {
	if len(dates) != plan.Days {
		return nil, ruleError(ErrInvalidDateCount, "selectedDates",
			"select exactly %d delivery dates, got %d", plan.Days, len(dates))
	}

	first, last := cal.Window(cal.Tomorrow(now), plan.ValidityDays)

	days := make([]time.Time, 0, len(dates))
	seen := make(map[int64]struct{}, len(dates))
	for _, raw := range dates {
		day := cal.Day(raw)
		if !cal.Contains(first, last, day) {
			return nil, ruleError(ErrDateOutOfWindow, "selectedDates",
				"%s is outside the allowed window %s to %s",
				cal.FormatDay(day), cal.FormatDay(first), cal.FormatDay(last))
		}
		key := day.Unix()
		if _, dup := seen[key]; dup {
			return nil, ruleError(ErrDuplicateDate, "selectedDates",
				"%s was selected more than once", cal.FormatDay(day))
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	entries := make([]ScheduleEntry, 0, len(days))
	for _, day := range days {
		entries = append(entries, ScheduleEntry{
			ID:         ids.Generate(),
			Date:       day,
			TimeSlot:   defaults.TimeSlot,
			Address:    defaults.Address,
			AddressID:  defaults.AddressID,
			AddressLat: defaults.Lat,
			AddressLng: defaults.Lng,
			Status:     EntryScheduled,
			UpdatedAt:  now,
		})
	}
	return entries, nil
}
