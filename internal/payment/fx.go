package payment

import (
	"github.com/smallbiznis/mealplan/internal/payment/adapters"
	"github.com/smallbiznis/mealplan/internal/payment/adapters/midtrans"
	"github.com/smallbiznis/mealplan/internal/payment/adapters/razorpay"
	"github.com/smallbiznis/mealplan/internal/payment/repository"
	paymentservice "github.com/smallbiznis/mealplan/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			razorpay.NewFactory(),
			midtrans.NewFactory(),
		)
	}),
	fx.Provide(paymentservice.NewService),
)
