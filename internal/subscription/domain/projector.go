package domain

// Project recounts the derived counters from the ledger. It never adjusts
// them incrementally, so calling it twice yields the same values.
func (s *Subscription) Project() {
	delivered, skipped := 0, 0
	for _, e := range s.DeliverySchedule {
		switch e.Status {
		case EntryDelivered:
			delivered++
		case EntrySkipped:
			skipped++
		}
	}
	s.DeliveriesCompleted = delivered
	s.SkipsUsed = skipped
}
