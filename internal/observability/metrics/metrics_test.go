package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("operation", "reschedule"),
		attribute.String("user_id", "456"),
		attribute.String("reason", "cutoff_passed"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "user_id" {
			t.Fatalf("user_id must not be used as a metric label")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordScheduleMutation(context.Background(), "reschedule")
	m.RecordScheduleRejection(context.Background(), "reschedule", "cutoff_passed")
	m.RecordEventPublished(context.Background(), "subscription.created", true)
}

func TestNewRegistersInstruments(t *testing.T) {
	m, err := New(Config{ServiceName: "mealplan-test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordSubscriptionCreated(context.Background(), 5)
	m.RecordPaymentEvent(context.Background(), "razorpay", "confirmed")
}
