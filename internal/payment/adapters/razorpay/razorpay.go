// Package razorpay creates orders over the Razorpay REST API and verifies
// checkout signatures.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultBaseURL = "https://api.razorpay.com"
	requestTimeout = 10 * time.Second
)

type Factory struct {
	client *http.Client
}

func NewFactory() *Factory {
	return &Factory{client: &http.Client{Timeout: requestTimeout}}
}

// NewFactoryWithClient is used by tests to point the adapter at a fake server.
func NewFactoryWithClient(client *http.Client) *Factory {
	return &Factory{client: client}
}

func (f *Factory) Provider() string {
	return "razorpay"
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Gateway, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	secret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || secret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		keyID:   keyID,
		secret:  secret,
		baseURL: baseURL,
		client:  f.client,
		breaker: gobreaker.NewCircuitBreaker[*orderResponse](gobreaker.Settings{
			Name:        "razorpay.orders",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A rejected order is the gateway working correctly.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, paymentdomain.ErrInvalidOrder)
			},
		}),
	}, nil
}

type Adapter struct {
	keyID   string
	secret  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*orderResponse]
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (a *Adapter) Provider() string {
	return "razorpay"
}

func (a *Adapter) CreateOrder(ctx context.Context, req paymentdomain.OrderRequest) (*paymentdomain.Order, error) {
	if req.Amount <= 0 || strings.TrimSpace(req.Currency) == "" {
		return nil, paymentdomain.ErrInvalidOrder
	}

	resp, err := a.breaker.Execute(func() (*orderResponse, error) {
		return a.postOrder(ctx, orderRequest{
			Amount:   req.Amount,
			Currency: strings.ToUpper(req.Currency),
			Receipt:  req.Receipt,
			Notes:    req.Notes,
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: razorpay circuit open", paymentdomain.ErrProviderUnavailable)
		}
		return nil, err
	}

	return &paymentdomain.Order{
		Provider: a.Provider(),
		ID:       resp.ID,
		Amount:   resp.Amount,
		Currency: resp.Currency,
		Key:      a.keyID,
	}, nil
}

func (a *Adapter) postOrder(ctx context.Context, body orderRequest) (*orderResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(a.keyID, a.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay: %v", paymentdomain.ErrProviderUnavailable, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay: read body: %v", paymentdomain.ErrProviderUnavailable, err)
	}

	switch {
	case res.StatusCode >= 500:
		return nil, fmt.Errorf("%w: razorpay returned %d", paymentdomain.ErrProviderUnavailable, res.StatusCode)
	case res.StatusCode >= 400:
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return nil, fmt.Errorf("%w: razorpay returned %d: %s", paymentdomain.ErrInvalidOrder, res.StatusCode, apiErr.Error.Description)
	}

	var order orderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("%w: razorpay: decode order: %v", paymentdomain.ErrProviderUnavailable, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: razorpay: order without id", paymentdomain.ErrProviderUnavailable)
	}
	return &order, nil
}

// VerifySignature checks hex(HMAC-SHA256(secret, orderID|paymentID)).
func (a *Adapter) VerifySignature(proof paymentdomain.Proof) bool {
	if proof.OrderID == "" || proof.PaymentID == "" || proof.Signature == "" {
		return false
	}
	expected := Sign(a.secret, proof.OrderID, proof.PaymentID)
	return hmac.Equal([]byte(strings.ToLower(proof.Signature)), []byte(expected))
}

// Sign computes the checkout signature the way Razorpay does.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
