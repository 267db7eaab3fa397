package adapters

import (
	"errors"
	"testing"

	"github.com/smallbiznis/mealplan/internal/payment/adapters/midtrans"
	"github.com/smallbiznis/mealplan/internal/payment/adapters/razorpay"
	"github.com/smallbiznis/mealplan/internal/payment/domain"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry(razorpay.NewFactory(), midtrans.NewFactory(), nil)

	if !registry.ProviderExists(" Razorpay ") {
		t.Fatalf("expected razorpay to be registered")
	}
	if registry.ProviderExists("stripe") {
		t.Fatalf("stripe must not be registered")
	}

	gw, err := registry.NewAdapter("razorpay", domain.AdapterConfig{KeyID: "rzp_test", KeySecret: "secret"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if gw.Provider() != "razorpay" {
		t.Fatalf("unexpected provider %q", gw.Provider())
	}

	if _, err := registry.NewAdapter("midtrans", domain.AdapterConfig{}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if _, err := registry.NewAdapter("paypal", domain.AdapterConfig{}); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected provider not found, got %v", err)
	}

	var nilRegistry *Registry
	if nilRegistry.ProviderExists("razorpay") {
		t.Fatalf("nil registry has no providers")
	}
}
