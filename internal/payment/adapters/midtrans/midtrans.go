// Package midtrans creates Snap transactions and verifies Midtrans
// notification signatures.
package midtrans

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
)

// statusSettled is the status code Midtrans signs for a captured payment.
const statusSettled = "200"

type snapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "midtrans"
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Gateway, error) {
	serverKey := strings.TrimSpace(cfg.KeySecret)
	if serverKey == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}

	env := midtrans.Sandbox
	if strings.EqualFold(strings.TrimSpace(cfg.Environment), "production") {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)

	return &Adapter{
		serverKey: serverKey,
		clientKey: strings.TrimSpace(cfg.KeyID),
		snap:      &client,
	}, nil
}

type Adapter struct {
	serverKey string
	clientKey string
	snap      snapClient
}

func (a *Adapter) Provider() string {
	return "midtrans"
}

func (a *Adapter) CreateOrder(ctx context.Context, req paymentdomain.OrderRequest) (*paymentdomain.Order, error) {
	if req.Amount <= 0 || strings.TrimSpace(req.Receipt) == "" {
		return nil, paymentdomain.ErrInvalidOrder
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Receipt,
			GrossAmt: req.Amount,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}
	if req.Customer != nil {
		snapReq.CustomerDetail = &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Phone: req.Customer.Phone,
		}
	}

	resp, merr := a.snap.CreateTransaction(snapReq)
	if merr != nil {
		if merr.StatusCode == 0 || merr.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: midtrans: %s", paymentdomain.ErrProviderUnavailable, merr.GetMessage())
		}
		return nil, fmt.Errorf("%w: midtrans returned %d: %s", paymentdomain.ErrInvalidOrder, merr.StatusCode, merr.GetMessage())
	}

	return &paymentdomain.Order{
		Provider:    a.Provider(),
		ID:          req.Receipt,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(req.Currency),
		Key:         resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// VerifySignature checks hex(SHA512(orderID + statusCode + grossAmount + serverKey))
// and only accepts settled payments.
func (a *Adapter) VerifySignature(proof paymentdomain.Proof) bool {
	if proof.OrderID == "" || proof.Signature == "" || proof.StatusCode != statusSettled {
		return false
	}
	expected := Sign(a.serverKey, proof.OrderID, proof.StatusCode, proof.GrossAmount)
	return hmac.Equal([]byte(strings.ToLower(proof.Signature)), []byte(expected))
}

func Sign(serverKey, orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}
