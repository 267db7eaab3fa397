package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func testCalendar() Calendar { return NewCalendarIn(ist) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, ist)
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func fivePerTen() PlanSnapshot {
	return PlanSnapshot{Name: "Starter", Days: 5, ValidityDays: 10, SkipDays: 2, Price: 99900}
}

// activeSubscription returns a paid subscription running 2 to 11 March with
// deliveries on the 3rd, 5th, 7th, 9th and 11th.
func activeSubscription(t *testing.T) *Subscription {
	t.Helper()
	node := newNode(t)
	start, end := day(2026, 3, 2), day(2026, 3, 11)
	sub := &Subscription{
		ID:            node.Generate(),
		UserID:        node.Generate(),
		PlanSnapshot:  fivePerTen(),
		Status:        StatusActive,
		PaymentStatus: PaymentPaid,
		StartDate:     &start,
		EndDate:       &end,
	}
	for _, d := range []int{3, 5, 7, 9, 11} {
		sub.DeliverySchedule = append(sub.DeliverySchedule, ScheduleEntry{
			ID:       node.Generate(),
			Date:     day(2026, 3, d),
			TimeSlot: "12:00-13:00",
			Address:  "12, MG Road, Bengaluru, Karnataka - 560001",
			Status:   EntryScheduled,
		})
	}
	return sub
}
