package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateScheduleManifest(ctx context.Context, data ScheduleManifest) (io.Reader, error)
}

// ScheduleManifest is the printable view of one subscription's deliveries.
// Values are preformatted by the caller.
type ScheduleManifest struct {
	SubscriptionID string
	Status         string
	GeneratedAt    string

	PlanName string
	Period   string
	Total    string

	CustomerName string
	Phone        string
	Address      string
	DeliveryTime string

	Days      int
	SkipDays  int
	Delivered int
	Skipped   int

	Entries []ManifestEntry
}

type ManifestEntry struct {
	Date     string
	TimeSlot string
	Address  string
	Status   string
}
