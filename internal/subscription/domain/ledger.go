package domain

import (
	"sort"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultCutoff = 24 * time.Hour

// ResolvedAddress is an address reference already checked against its owner.
type ResolvedAddress struct {
	ID       snowflake.ID
	FullText string
	Lat      *float64
	Lng      *float64
}

// AddressLookup resolves an address id for the subscription owner. It returns
// ErrInvalidAddress when the id does not resolve to one of the owner's addresses.
type AddressLookup func(id snowflake.ID) (ResolvedAddress, error)

// ScheduleChange carries the optional parts of a reschedule request.
type ScheduleChange struct {
	Date      *time.Time
	TimeSlot  *string
	AddressID *snowflake.ID
}

func (c ScheduleChange) Empty() bool {
	return c.Date == nil && c.TimeSlot == nil && c.AddressID == nil
}

// Reschedule mutates one entry on behalf of the owner. Every check runs before
// the entry is touched so a rejected change leaves the ledger as it was.
func (s *Subscription) Reschedule(entryID snowflake.ID, change ScheduleChange, lookup AddressLookup, now time.Time, cal Calendar, cutoff time.Duration) (*ScheduleEntry, error) {
	if s.Status != StatusActive {
		return nil, ruleError(ErrNotActive, "status",
			"only active subscriptions can be modified (current status %s)", s.Status)
	}

	idx := s.entryIndex(entryID)
	if idx < 0 {
		return nil, ruleError(ErrEntryNotFound, "scheduleId", "schedule entry %s not found", entryID)
	}
	entry := s.DeliverySchedule[idx]

	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	deadline := entry.Date.Add(-cutoff)
	if !now.Before(deadline) {
		return nil, ruleError(ErrCutoffPassed, "date",
			"schedule can only be changed at least %s in advance: delivery on %s closed for changes at %s",
			formatCutoff(cutoff), cal.FormatDay(entry.Date), deadline.In(cal.Location()).Format(time.RFC3339))
	}

	var newDay time.Time
	if change.Date != nil {
		newDay = cal.Day(*change.Date)
		if s.StartDate == nil || s.EndDate == nil || !cal.Contains(*s.StartDate, *s.EndDate, newDay) {
			return nil, ruleError(ErrDateOutOfWindow, "date",
				"%s is outside the subscription period %s", cal.FormatDay(newDay), s.periodText(cal))
		}
		for i := range s.DeliverySchedule {
			if i == idx {
				continue
			}
			if cal.SameDay(s.DeliverySchedule[i].Date, newDay) {
				return nil, ruleError(ErrDateAlreadyScheduled, "date",
					"a delivery is already scheduled on %s", cal.FormatDay(newDay))
			}
		}
	}

	var addr *ResolvedAddress
	if change.AddressID != nil {
		if lookup == nil {
			return nil, ruleError(ErrInvalidAddress, "addressId", "address %s could not be resolved", *change.AddressID)
		}
		resolved, err := lookup(*change.AddressID)
		if err != nil {
			if IsValidation(err) {
				return nil, ruleError(ErrInvalidAddress, "addressId", "address %s could not be resolved", *change.AddressID)
			}
			return nil, err
		}
		addr = &resolved
	}

	if change.Date != nil {
		entry.mutateDate(newDay, cal)
	}
	if change.TimeSlot != nil {
		entry.TimeSlot = *change.TimeSlot
	}
	if addr != nil {
		id := addr.ID
		entry.Address = addr.FullText
		entry.AddressID = &id
		entry.AddressLat = addr.Lat
		entry.AddressLng = addr.Lng
	}
	entry.UpdatedAt = now

	s.DeliverySchedule[idx] = entry
	s.sortSchedule()
	s.Project()

	out := entry
	return &out, nil
}

// SetEntryStatus is the administrative override. No cutoff applies.
func (s *Subscription) SetEntryStatus(entryID snowflake.ID, status EntryStatus, now time.Time) (*ScheduleEntry, error) {
	if !status.Valid() {
		return nil, ruleError(ErrInvalidEntryStatus, "status",
			"%q is not one of scheduled, delivered, skipped, rescheduled", status)
	}
	idx := s.entryIndex(entryID)
	if idx < 0 {
		return nil, ruleError(ErrEntryNotFound, "scheduleId", "schedule entry %s not found", entryID)
	}

	entry := &s.DeliverySchedule[idx]
	entry.transition(status)
	entry.UpdatedAt = now
	s.Project()

	out := *entry
	return &out, nil
}

// mutateDate moves the entry and, when the day actually changes, marks it
// rescheduled whatever its previous outcome was.
func (e *ScheduleEntry) mutateDate(day time.Time, cal Calendar) {
	if !cal.SameDay(e.Date, day) {
		e.transition(EntryRescheduled)
	}
	e.Date = day
}

func (e *ScheduleEntry) transition(to EntryStatus) {
	e.Status = to
}

func (s *Subscription) sortSchedule() {
	entries := s.DeliverySchedule
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
}

func (s *Subscription) periodText(cal Calendar) string {
	if s.StartDate == nil || s.EndDate == nil {
		return "(not started)"
	}
	return cal.FormatDay(*s.StartDate) + " to " + cal.FormatDay(*s.EndDate)
}

func formatCutoff(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return strconv.Itoa(hours) + " hours"
	}
	return d.String()
}
