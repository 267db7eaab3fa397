package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestGenerateScheduleManifest(t *testing.T) {
	provider := New()
	reader, err := provider.GenerateScheduleManifest(context.Background(), ScheduleManifest{
		SubscriptionID: "1789",
		Status:         "active",
		PlanName:       "Weekly Green Box",
		Period:         "02 Mar 2026 - 11 Mar 2026",
		Total:          "INR 1,499.00",
		CustomerName:   "Asha",
		Phone:          "9999999999",
		Address:        "12, MG Road, Pune, MH - 411001",
		DeliveryTime:   "12:00-13:00",
		Days:           2,
		SkipDays:       2,
		Delivered:      1,
		Entries: []ManifestEntry{
			{Date: "2026-03-02", TimeSlot: "12:00-13:00", Address: "12, MG Road", Status: "delivered"},
			{Date: "2026-03-04", TimeSlot: "12:00-13:00", Address: "12, MG Road", Status: "scheduled"},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	doc, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatalf("expected a pdf document, got %q", doc[:min(len(doc), 8)])
	}
}

func TestGenerateScheduleManifestRequiresID(t *testing.T) {
	if _, err := New().GenerateScheduleManifest(context.Background(), ScheduleManifest{}); err == nil {
		t.Fatalf("expected an error for an empty manifest")
	}
}
