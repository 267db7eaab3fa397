package domain

import "time"

// PaymentConfirmation is the verified gateway proof attached on activation.
type PaymentConfirmation struct {
	Provider  string
	OrderID   string
	PaymentID string
	Signature string
}

// Activate moves a pending subscription to active and fixes its period,
// anchored on tomorrow relative to the confirmation time. Delivery dates
// chosen at creation are not re-validated against the new period.
func (s *Subscription) Activate(proof PaymentConfirmation, now time.Time, cal Calendar) error {
	if s.Status != StatusPending {
		return ruleError(ErrNotPending, "status",
			"subscription %s is %s, only pending subscriptions can be activated", s.ID, s.Status)
	}

	start, end := cal.Window(cal.Tomorrow(now), s.PlanSnapshot.ValidityDays)
	paidAt := now

	s.PaymentStatus = PaymentPaid
	s.Status = StatusActive
	if proof.Provider != "" {
		s.PaymentProvider = proof.Provider
	}
	s.ProviderPaymentID = proof.PaymentID
	s.ProviderSignature = proof.Signature
	s.PaidAt = &paidAt
	s.StartDate = &start
	s.EndDate = &end
	s.UpdatedAt = now
	return nil
}

// SetStatus is the administrative overwrite. The status enum is advisory on
// this path: any valid status may replace any other.
func (s *Subscription) SetStatus(status SubscriptionStatus, notes *string, now time.Time) error {
	if !status.Valid() {
		return ruleError(ErrInvalidStatus, "status",
			"%q is not one of pending, active, paused, completed, cancelled, refunded", status)
	}
	s.Status = status
	if notes != nil {
		s.AdminNotes = *notes
	}
	s.UpdatedAt = now
	return nil
}

// Expire cancels a checkout that was never paid. Only pending
// subscriptions expire; anything else was confirmed or handled by an admin.
func (s *Subscription) Expire(now time.Time) error {
	if s.Status != StatusPending {
		return ruleError(ErrNotPending, "status",
			"subscription %s is %s, only pending subscriptions expire", s.ID, s.Status)
	}
	s.Status = StatusCancelled
	s.PaymentStatus = PaymentFailed
	s.UpdatedAt = now
	return nil
}

// IsOpen reports whether the subscription blocks the owner from buying another.
func (s *Subscription) IsOpen() bool {
	return s.Status == StatusPending || s.Status == StatusActive
}
