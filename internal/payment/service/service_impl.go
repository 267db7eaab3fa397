package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/mealplan/internal/config"
	obsmetrics "github.com/smallbiznis/mealplan/internal/observability/metrics"
	"github.com/smallbiznis/mealplan/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
	"github.com/smallbiznis/mealplan/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Registry   *adapters.Registry
	Repo       paymentdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	gateway    paymentdomain.Gateway
	currency   string
	repo       paymentdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

// NewService builds the configured gateway once. An unknown provider or
// missing credentials fail startup.
func NewService(p Params) (paymentdomain.Service, error) {
	provider := strings.ToLower(strings.TrimSpace(p.Cfg.Payment.Provider))
	gateway, err := p.Registry.NewAdapter(provider, adapterConfig(provider, p.Cfg.Payment))
	if err != nil {
		return nil, err
	}
	return NewWithGateway(p.Log, gateway, p.Cfg.Payment.Currency, p.Repo, p.ObsMetrics), nil
}

func NewWithGateway(log *zap.Logger, gateway paymentdomain.Gateway, currency string, repo paymentdomain.Repository, m *obsmetrics.Metrics) *Service {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		log:        log.Named("payment.service"),
		gateway:    gateway,
		currency:   currency,
		repo:       repo,
		obsMetrics: m,
	}
}

func adapterConfig(provider string, cfg config.PaymentConfig) paymentdomain.AdapterConfig {
	switch provider {
	case "midtrans":
		return paymentdomain.AdapterConfig{
			KeyID:       cfg.MidtransClientKey,
			KeySecret:   cfg.MidtransServerKey,
			Environment: cfg.MidtransEnv,
		}
	default:
		return paymentdomain.AdapterConfig{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			BaseURL:   cfg.RazorpayBaseURL,
		}
	}
}

func (s *Service) Provider() string {
	return s.gateway.Provider()
}

func (s *Service) CreateOrder(ctx context.Context, req paymentdomain.OrderRequest) (*paymentdomain.Order, error) {
	if req.Currency == "" {
		req.Currency = s.currency
	}
	order, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		s.log.Warn("gateway order failed",
			zap.String("provider", s.gateway.Provider()),
			zap.String("receipt", req.Receipt),
			zap.Bool("transient", errors.Is(err, paymentdomain.ErrProviderUnavailable)),
			zap.Error(err),
		)
		s.obsMetrics.RecordPaymentEvent(ctx, s.gateway.Provider(), "order_failed")
		return nil, err
	}
	s.obsMetrics.RecordPaymentEvent(ctx, s.gateway.Provider(), "order_created")
	return order, nil
}

func (s *Service) VerifySignature(ctx context.Context, proof paymentdomain.Proof) bool {
	ok := s.gateway.VerifySignature(proof)
	if !ok {
		s.log.Warn("payment signature rejected",
			zap.String("provider", s.gateway.Provider()),
			zap.String("order_id", proof.OrderID),
			zap.String("payment_id", proof.PaymentID),
		)
		s.obsMetrics.RecordPaymentEvent(ctx, s.gateway.Provider(), "signature_rejected")
		return false
	}
	s.obsMetrics.RecordPaymentEvent(ctx, s.gateway.Provider(), "signature_verified")
	return true
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) error {
	if payment == nil {
		return paymentdomain.ErrInvalidOrder
	}
	if payment.Provider == "" {
		payment.Provider = s.gateway.Provider()
	}
	if payment.Currency == "" {
		payment.Currency = s.currency
	}
	// The unique index still catches a racing insert that passes this read.
	existing, err := s.repo.FindByProviderPaymentID(ctx, tx, payment.Provider, payment.ProviderPaymentID)
	if err != nil {
		return err
	}
	if existing != nil {
		return paymentdomain.ErrDuplicatePayment
	}
	if err := s.repo.Insert(ctx, tx, payment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return paymentdomain.ErrDuplicatePayment
		}
		return err
	}
	s.obsMetrics.RecordPaymentEvent(ctx, payment.Provider, "recorded")
	return nil
}
