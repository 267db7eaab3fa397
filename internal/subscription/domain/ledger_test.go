package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRescheduleCutoff(t *testing.T) {
	cal := testCalendar()

	t.Run("10 hours before delivery is rejected", func(t *testing.T) {
		sub := activeSubscription(t)
		entry := sub.DeliverySchedule[1] // 5 March
		now := entry.Date.Add(-10 * time.Hour)

		_, err := sub.Reschedule(entry.ID, ScheduleChange{Date: ptr(day(2026, 3, 10))}, nil, now, cal, DefaultCutoff)
		require.True(t, errors.Is(err, ErrCutoffPassed), "got %v", err)
		require.Contains(t, err.Error(), "2026-03-05")
		require.Contains(t, err.Error(), "24 hours")
	})

	t.Run("30 hours before delivery succeeds", func(t *testing.T) {
		sub := activeSubscription(t)
		entry := sub.DeliverySchedule[1]
		now := entry.Date.Add(-30 * time.Hour)

		got, err := sub.Reschedule(entry.ID, ScheduleChange{Date: ptr(day(2026, 3, 6))}, nil, now, cal, DefaultCutoff)
		require.NoError(t, err)
		require.True(t, got.Date.Equal(day(2026, 3, 6)))
		require.Equal(t, EntryRescheduled, got.Status)
		require.Equal(t, now, got.UpdatedAt)
	})

	t.Run("exactly at the cutoff is rejected", func(t *testing.T) {
		sub := activeSubscription(t)
		entry := sub.DeliverySchedule[1]
		_, err := sub.Reschedule(entry.ID, ScheduleChange{TimeSlot: ptr("18:00-19:00")}, nil, entry.Date.Add(-24*time.Hour), cal, DefaultCutoff)
		require.True(t, errors.Is(err, ErrCutoffPassed))
	})

	t.Run("cutoff uses the current date, not the requested one", func(t *testing.T) {
		sub := activeSubscription(t)
		entry := sub.DeliverySchedule[0] // 3 March
		now := entry.Date.Add(-2 * time.Hour)

		_, err := sub.Reschedule(entry.ID, ScheduleChange{Date: ptr(day(2026, 3, 10))}, nil, now, cal, DefaultCutoff)
		require.True(t, errors.Is(err, ErrCutoffPassed))
	})

	t.Run("policy cutoff overrides the default", func(t *testing.T) {
		sub := activeSubscription(t)
		entry := sub.DeliverySchedule[1]
		now := entry.Date.Add(-30 * time.Hour)

		_, err := sub.Reschedule(entry.ID, ScheduleChange{TimeSlot: ptr("18:00-19:00")}, nil, now, cal, 48*time.Hour)
		require.True(t, errors.Is(err, ErrCutoffPassed))
		require.Contains(t, err.Error(), "48 hours")
	})
}

func TestRescheduleCollisions(t *testing.T) {
	cal := testCalendar()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, ist)

	t.Run("another entry's date conflicts", func(t *testing.T) {
		sub := activeSubscription(t)
		before := append([]ScheduleEntry(nil), sub.DeliverySchedule...)

		_, err := sub.Reschedule(sub.DeliverySchedule[0].ID, ScheduleChange{Date: ptr(day(2026, 3, 7).Add(11 * time.Hour))}, nil, now, cal, DefaultCutoff)
		require.True(t, errors.Is(err, ErrDateAlreadyScheduled), "got %v", err)
		require.True(t, IsConflict(err))
		require.Contains(t, err.Error(), "2026-03-07")
		require.Equal(t, before, []ScheduleEntry(sub.DeliverySchedule), "rejected change must not touch the ledger")
	})

	t.Run("own date is not a collision", func(t *testing.T) {
		sub := activeSubscription(t)
		entry := sub.DeliverySchedule[2]

		got, err := sub.Reschedule(entry.ID, ScheduleChange{Date: ptr(entry.Date.Add(6 * time.Hour))}, nil, now, cal, DefaultCutoff)
		require.NoError(t, err)
		require.Equal(t, EntryScheduled, got.Status, "same day must not flip status")
		require.True(t, got.Date.Equal(entry.Date))
	})

	t.Run("outside the paid period", func(t *testing.T) {
		sub := activeSubscription(t)
		_, err := sub.Reschedule(sub.DeliverySchedule[0].ID, ScheduleChange{Date: ptr(day(2026, 3, 12))}, nil, now, cal, DefaultCutoff)
		require.True(t, errors.Is(err, ErrDateOutOfWindow), "got %v", err)
		require.Contains(t, err.Error(), "2026-03-02 to 2026-03-11")
	})
}

func TestRescheduleStatusSideEffects(t *testing.T) {
	cal := testCalendar()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, ist)

	t.Run("time only keeps status", func(t *testing.T) {
		sub := activeSubscription(t)
		got, err := sub.Reschedule(sub.DeliverySchedule[3].ID, ScheduleChange{TimeSlot: ptr("19:00-20:00")}, nil, now, cal, DefaultCutoff)
		require.NoError(t, err)
		assert.Equal(t, EntryScheduled, got.Status)
		assert.Equal(t, "19:00-20:00", got.TimeSlot)
	})

	t.Run("date change overwrites delivered and recounts", func(t *testing.T) {
		sub := activeSubscription(t)
		sub.DeliverySchedule[3].Status = EntryDelivered
		sub.DeliverySchedule[4].Status = EntrySkipped
		sub.Project()
		require.Equal(t, 1, sub.DeliveriesCompleted)

		got, err := sub.Reschedule(sub.DeliverySchedule[3].ID, ScheduleChange{Date: ptr(day(2026, 3, 10))}, nil, now, cal, DefaultCutoff)
		require.NoError(t, err)
		assert.Equal(t, EntryRescheduled, got.Status)
		assert.Equal(t, 0, sub.DeliveriesCompleted)
		assert.Equal(t, 1, sub.SkipsUsed)
	})

	t.Run("ledger stays sorted after a move", func(t *testing.T) {
		sub := activeSubscription(t)
		moved := sub.DeliverySchedule[0].ID
		_, err := sub.Reschedule(moved, ScheduleChange{Date: ptr(day(2026, 3, 8))}, nil, now, cal, DefaultCutoff)
		require.NoError(t, err)
		for i := 1; i < len(sub.DeliverySchedule); i++ {
			require.True(t, sub.DeliverySchedule[i-1].Date.Before(sub.DeliverySchedule[i].Date))
		}
		require.Equal(t, moved, sub.DeliverySchedule[2].ID)
	})
}

func TestRescheduleAddress(t *testing.T) {
	cal := testCalendar()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, ist)
	lat, lng := 12.97, 77.59

	t.Run("resolved address is stored", func(t *testing.T) {
		sub := activeSubscription(t)
		addrID := snowflake.ID(42)
		lookup := func(id snowflake.ID) (ResolvedAddress, error) {
			return ResolvedAddress{ID: id, FullText: "7, Indiranagar, Bengaluru, Karnataka - 560038", Lat: &lat, Lng: &lng}, nil
		}
		got, err := sub.Reschedule(sub.DeliverySchedule[1].ID, ScheduleChange{AddressID: &addrID}, lookup, now, cal, DefaultCutoff)
		require.NoError(t, err)
		require.Equal(t, "7, Indiranagar, Bengaluru, Karnataka - 560038", got.Address)
		require.Equal(t, addrID, *got.AddressID)
		require.Equal(t, lat, *got.AddressLat)
		require.Equal(t, EntryScheduled, got.Status)
	})

	t.Run("foreign address is a validation error", func(t *testing.T) {
		sub := activeSubscription(t)
		addrID := snowflake.ID(43)
		lookup := func(snowflake.ID) (ResolvedAddress, error) { return ResolvedAddress{}, ErrInvalidAddress }

		_, err := sub.Reschedule(sub.DeliverySchedule[1].ID, ScheduleChange{AddressID: &addrID, Date: ptr(day(2026, 3, 6))}, lookup, now, cal, DefaultCutoff)
		require.True(t, errors.Is(err, ErrInvalidAddress), "got %v", err)
		require.True(t, sub.DeliverySchedule[1].Date.Equal(day(2026, 3, 5)), "date must not move when the address fails")
	})

	t.Run("transient lookup failure passes through", func(t *testing.T) {
		sub := activeSubscription(t)
		addrID := snowflake.ID(44)
		boom := errors.New("connection reset")
		lookup := func(snowflake.ID) (ResolvedAddress, error) { return ResolvedAddress{}, boom }

		_, err := sub.Reschedule(sub.DeliverySchedule[1].ID, ScheduleChange{AddressID: &addrID}, lookup, now, cal, DefaultCutoff)
		require.ErrorIs(t, err, boom)
		require.False(t, IsValidation(err))
	})
}

func TestReschedulePreconditions(t *testing.T) {
	cal := testCalendar()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, ist)

	for _, status := range []SubscriptionStatus{StatusPending, StatusPaused, StatusCancelled, StatusCompleted, StatusRefunded} {
		sub := activeSubscription(t)
		sub.Status = status
		_, err := sub.Reschedule(sub.DeliverySchedule[0].ID, ScheduleChange{TimeSlot: ptr("x")}, nil, now, cal, DefaultCutoff)
		require.True(t, errors.Is(err, ErrNotActive), "%s: got %v", status, err)
		require.Contains(t, err.Error(), "only active subscriptions can be modified")
	}

	sub := activeSubscription(t)
	_, err := sub.Reschedule(snowflake.ID(1), ScheduleChange{TimeSlot: ptr("x")}, nil, now, cal, DefaultCutoff)
	require.True(t, errors.Is(err, ErrEntryNotFound))
}
