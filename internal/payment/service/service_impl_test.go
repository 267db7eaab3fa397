package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/payment/adapters"
	"github.com/smallbiznis/mealplan/internal/payment/adapters/razorpay"
	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
	"github.com/smallbiznis/mealplan/internal/payment/domain/mocks"
	paymentrepo "github.com/smallbiznis/mealplan/internal/payment/repository"
	paymentservice "github.com/smallbiznis/mealplan/internal/payment/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&paymentdomain.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNewServiceSelectsConfiguredGateway(t *testing.T) {
	registry := adapters.NewRegistry(razorpay.NewFactory())

	svc, err := paymentservice.NewService(paymentservice.Params{
		Cfg: config.Config{Payment: config.PaymentConfig{
			Provider:          "Razorpay",
			Currency:          "inr",
			RazorpayKeyID:     "rzp_test",
			RazorpayKeySecret: "secret",
		}},
		Log:      zap.NewNop(),
		Registry: registry,
		Repo:     paymentrepo.Provide(),
	})
	require.NoError(t, err)
	require.Equal(t, "razorpay", svc.Provider())

	_, err = paymentservice.NewService(paymentservice.Params{
		Cfg:      config.Config{Payment: config.PaymentConfig{Provider: "midtrans"}},
		Log:      zap.NewNop(),
		Registry: registry,
		Repo:     paymentrepo.Provide(),
	})
	require.True(t, errors.Is(err, paymentdomain.ErrProviderNotFound))
}

func TestCreateOrderDefaultsCurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	gateway.EXPECT().Provider().Return("razorpay").AnyTimes()
	gateway.EXPECT().
		CreateOrder(gomock.Any(), paymentdomain.OrderRequest{Amount: 500, Currency: "INR", Receipt: "sub_1"}).
		Return(&paymentdomain.Order{Provider: "razorpay", ID: "order_1", Amount: 500, Currency: "INR"}, nil)

	svc := paymentservice.NewWithGateway(zap.NewNop(), gateway, "", paymentrepo.Provide(), nil)
	order, err := svc.CreateOrder(context.Background(), paymentdomain.OrderRequest{Amount: 500, Receipt: "sub_1"})
	require.NoError(t, err)
	require.Equal(t, "order_1", order.ID)
}

func TestCreateOrderPropagatesUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	gateway.EXPECT().Provider().Return("razorpay").AnyTimes()
	gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(nil, paymentdomain.ErrProviderUnavailable)

	svc := paymentservice.NewWithGateway(zap.NewNop(), gateway, "INR", paymentrepo.Provide(), nil)
	_, err := svc.CreateOrder(context.Background(), paymentdomain.OrderRequest{Amount: 500})
	require.True(t, errors.Is(err, paymentdomain.ErrProviderUnavailable))
}

func TestRecordRejectsDuplicatePayment(t *testing.T) {
	db := setupTestDB(t)
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	gateway.EXPECT().Provider().Return("razorpay").AnyTimes()
	svc := paymentservice.NewWithGateway(zap.NewNop(), gateway, "INR", paymentrepo.Provide(), nil)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &paymentdomain.Payment{
		ID: 1, UserID: 7, SubscriptionID: 9, Amount: 129900,
		Status: paymentdomain.StatusCaptured, ProviderOrderID: "order_1", ProviderPaymentID: "pay_1",
		PaidAt: &now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, svc.Record(context.Background(), db, first))
	require.Equal(t, "razorpay", first.Provider)
	require.Equal(t, "INR", first.Currency)

	dup := *first
	dup.ID = 2
	err := svc.Record(context.Background(), db, &dup)
	require.True(t, errors.Is(err, paymentdomain.ErrDuplicatePayment), "got %v", err)

	stored, err := paymentrepo.Provide().FindByProviderPaymentID(context.Background(), db, "razorpay", "pay_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, int64(129900), stored.Amount)
}

func TestRecordChecksForExistingPaymentFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	gateway.EXPECT().Provider().Return("razorpay").AnyTimes()
	repo := mocks.NewMockRepository(ctrl)
	svc := paymentservice.NewWithGateway(zap.NewNop(), gateway, "INR", repo, nil)

	recorded := &paymentdomain.Payment{ID: 1, Provider: "razorpay", ProviderPaymentID: "pay_1"}
	repo.EXPECT().
		FindByProviderPaymentID(gomock.Any(), gomock.Any(), "razorpay", "pay_1").
		Return(recorded, nil)
	repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := svc.Record(context.Background(), nil, &paymentdomain.Payment{ID: 2, ProviderPaymentID: "pay_1"})
	require.ErrorIs(t, err, paymentdomain.ErrDuplicatePayment)

	lookupErr := errors.New("connection reset")
	repo.EXPECT().
		FindByProviderPaymentID(gomock.Any(), gomock.Any(), "razorpay", "pay_2").
		Return(nil, lookupErr)
	err = svc.Record(context.Background(), nil, &paymentdomain.Payment{ID: 3, ProviderPaymentID: "pay_2"})
	require.ErrorIs(t, err, lookupErr)
}

func TestVerifySignatureDelegates(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	gateway.EXPECT().Provider().Return("razorpay").AnyTimes()
	proof := paymentdomain.Proof{OrderID: "order_1", PaymentID: "pay_1", Signature: "bad"}
	gateway.EXPECT().VerifySignature(proof).Return(false)

	svc := paymentservice.NewWithGateway(zap.NewNop(), gateway, "INR", paymentrepo.Provide(), nil)
	require.False(t, svc.VerifySignature(context.Background(), proof))
}
