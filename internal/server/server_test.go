package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/mealplan/internal/audit/domain"
	authdomain "github.com/smallbiznis/mealplan/internal/auth/domain"
	"github.com/smallbiznis/mealplan/internal/authorization"
	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthService struct{}

func (fakeAuthService) Verify(ctx context.Context, rawToken string) (*authdomain.Principal, error) {
	_ = ctx
	switch rawToken {
	case "user-token":
		return &authdomain.Principal{UserID: 42, Role: authdomain.RoleUser}, nil
	case "admin-token":
		return &authdomain.Principal{UserID: 7, Role: authdomain.RoleAdmin}, nil
	}
	return nil, authdomain.ErrInvalidToken
}

type fakeAuthzService struct {
	calls []string
}

func (f *fakeAuthzService) Authorize(ctx context.Context, userID string, role string, object string, action string) error {
	_ = ctx
	f.calls = append(f.calls, object+":"+action)
	if role != authdomain.RoleAdmin {
		return authorization.ErrForbidden
	}
	return nil
}

type fakePlanService struct {
	plandomain.Service
}

func (fakePlanService) ListActive(ctx context.Context) ([]plandomain.Response, error) {
	_ = ctx
	return []plandomain.Response{{ID: "1", Name: "Starter", Days: 6, Price: 1499}}, nil
}

type fakeAuditService struct {
	auditdomain.Service
}

type fakeSubscriptionService struct {
	subscriptiondomain.Service

	createErr     error
	confirmErr    error
	rescheduleErr error
	manifest      []byte

	lastUserID string
	lastEntry  string
}

func (f *fakeSubscriptionService) Create(ctx context.Context, userID string, req subscriptiondomain.CreateRequest) (*subscriptiondomain.CreateResponse, error) {
	_ = ctx
	f.lastUserID = userID
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &subscriptiondomain.CreateResponse{
		Subscription: subscriptiondomain.SubscriptionResponse{ID: "100", UserID: userID, PlanID: req.PlanID},
		Order:        subscriptiondomain.PaymentOrder{Provider: "razorpay", ID: "order_100", Amount: 1499, Currency: "INR"},
	}, nil
}

func (f *fakeSubscriptionService) ConfirmPayment(ctx context.Context, userID string, req subscriptiondomain.ConfirmPaymentRequest) (*subscriptiondomain.SubscriptionResponse, error) {
	_ = ctx
	f.lastUserID = userID
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &subscriptiondomain.SubscriptionResponse{ID: req.SubscriptionID, Status: subscriptiondomain.StatusActive}, nil
}

func (f *fakeSubscriptionService) Reschedule(ctx context.Context, userID, subscriptionID, entryID string, req subscriptiondomain.RescheduleRequest) (*subscriptiondomain.SubscriptionResponse, error) {
	_ = ctx
	_ = req
	f.lastUserID = userID
	f.lastEntry = entryID
	if f.rescheduleErr != nil {
		return nil, f.rescheduleErr
	}
	return &subscriptiondomain.SubscriptionResponse{ID: subscriptionID}, nil
}

func (f *fakeSubscriptionService) GetActive(ctx context.Context, userID string) (*subscriptiondomain.ActiveResponse, error) {
	_ = ctx
	f.lastUserID = userID
	return &subscriptiondomain.ActiveResponse{HasActive: false}, nil
}

func (f *fakeSubscriptionService) ScheduleManifest(ctx context.Context, subscriptionID string) (io.Reader, error) {
	_ = ctx
	_ = subscriptionID
	return bytes.NewReader(f.manifest), nil
}

type testErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	} `json:"error"`
}

func newTestServer(t *testing.T, subs *fakeSubscriptionService) (*Server, *fakeAuthzService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	authz := &fakeAuthzService{}
	srv := NewServer(ServerParams{
		Gin:             engine,
		Authsvc:         fakeAuthService{},
		AuthzSvc:        authz,
		AuditSvc:        fakeAuditService{},
		PlanSvc:         fakePlanService{},
		SubscriptionSvc: subs,
	})
	return srv, authz
}

func doRequest(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) testErrorBody {
	t.Helper()
	var body testErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const validCreateBody = `{
	"planId": "1",
	"saladId": "2",
	"deliveryDetails": {"name": "Asha", "phone": "9999999999", "deliveryTime": "08:00"},
	"selectedDates": ["2026-03-03"]
}`

func TestPublicPlansNeedNoToken(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSubscriptionService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/subscription/plans", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []plandomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Starter", body.Data[0].Name)
}

func TestAuthRequired(t *testing.T) {
	subs := &fakeSubscriptionService{}
	srv, _ := newTestServer(t, subs)

	rec := doRequest(t, srv, http.MethodGet, "/api/subscription/active", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Error.Type)

	rec = doRequest(t, srv, http.MethodGet, "/api/subscription/active", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/subscription/active", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", subs.lastUserID)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	subs := &fakeSubscriptionService{manifest: []byte("%PDF-1.4 test")}
	srv, authz := newTestServer(t, subs)

	rec := doRequest(t, srv, http.MethodGet, "/admin/subscription/order/100/schedule.pdf", "user-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Error.Type)
	assert.Equal(t, []string{"subscription:subscription.export"}, authz.calls)

	rec = doRequest(t, srv, http.MethodGet, "/admin/subscription/order/100/schedule.pdf", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule-100.pdf")
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())
}

func TestCreateSubscriptionErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorType string
		field     string
	}{
		{
			name:   "created",
			status: http.StatusCreated,
		},
		{
			name:      "open subscription exists",
			err:       subscriptiondomain.ErrActiveSubscriptionExists,
			status:    http.StatusConflict,
			errorType: "conflict",
		},
		{
			name:      "gateway unavailable",
			err:       paymentdomain.ErrProviderUnavailable,
			status:    http.StatusServiceUnavailable,
			errorType: "service_unavailable",
		},
		{
			name: "date outside window",
			err: &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrDateOutOfWindow,
				Field:   "selectedDates",
				Message: "2026-06-01 is outside the delivery window",
			},
			status:    http.StatusBadRequest,
			errorType: "validation_error",
			field:     "selectedDates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := &fakeSubscriptionService{createErr: tt.err}
			srv, _ := newTestServer(t, subs)

			rec := doRequest(t, srv, http.MethodPost, "/api/subscription/create", "user-token", validCreateBody)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "42", subs.lastUserID)
			if tt.err == nil {
				return
			}

			body := decodeError(t, rec)
			assert.Equal(t, tt.errorType, body.Error.Type)
			if tt.field != "" {
				require.Len(t, body.Error.Errors, 1)
				assert.Equal(t, tt.field, body.Error.Errors[0].Field)
				assert.Equal(t, "date_out_of_window", body.Error.Errors[0].Code)
			}
		})
	}
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSubscriptionService{})

	rec := doRequest(t, srv, http.MethodPost, "/api/subscription/create", "user-token", `{"planId":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "request", body.Error.Errors[0].Field)
}

func TestVerifyPaymentForeignSubscription(t *testing.T) {
	subs := &fakeSubscriptionService{confirmErr: subscriptiondomain.ErrNotOwned}
	srv, _ := newTestServer(t, subs)

	rec := doRequest(t, srv, http.MethodPost, "/api/subscription/verify-payment", "user-token",
		`{"subscriptionId":"100","orderId":"order_100","paymentId":"pay_1","signature":"sig"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRescheduleCutoff(t *testing.T) {
	subs := &fakeSubscriptionService{rescheduleErr: &subscriptiondomain.RuleError{
		Err:     subscriptiondomain.ErrCutoffPassed,
		Field:   "date",
		Message: "changes close at 22:00 the day before delivery",
	}}
	srv, _ := newTestServer(t, subs)

	rec := doRequest(t, srv, http.MethodPatch, "/api/subscription/100/schedule/entry-3", "user-token", `{"date":"2026-03-04"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "entry-3", subs.lastEntry)

	body := decodeError(t, rec)
	assert.Equal(t, "cutoff_violation", body.Error.Type)
	assert.Equal(t, "changes close at 22:00 the day before delivery", body.Error.Message)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSubscriptionService{})

	rec := doRequest(t, srv, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
