package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authdomain "github.com/smallbiznis/mealplan/internal/auth/domain"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newTestService(t *testing.T, issuer string) (authdomain.Service, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		Cfg:   config.Config{AuthJWTSecret: testSecret, AuthJWTIssuer: issuer},
		Log:   zap.NewNop(),
		Clock: clk,
	})
	return svc, clk
}

func sign(t *testing.T, key []byte, claims authdomain.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestVerify(t *testing.T) {
	svc, clk := newTestService(t, "mealplan-auth")
	now := clk.Now()

	raw := sign(t, []byte(testSecret), authdomain.Claims{
		Role: "Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    "mealplan-auth",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	principal, err := svc.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.UserID.Int64() != 42 || !principal.IsAdmin() {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	clk.Advance(2 * time.Hour)
	if _, err := svc.Verify(context.Background(), raw); !errors.Is(err, authdomain.ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	svc, clk := newTestService(t, "mealplan-auth")
	exp := jwt.NewNumericDate(clk.Now().Add(time.Hour))

	cases := map[string]struct {
		raw  string
		want error
	}{
		"empty": {raw: "", want: authdomain.ErrMissingToken},
		"wrong secret": {
			raw: sign(t, []byte("other"), authdomain.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "mealplan-auth", ExpiresAt: exp},
			}),
			want: authdomain.ErrInvalidToken,
		},
		"wrong issuer": {
			raw: sign(t, []byte(testSecret), authdomain.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "someone-else", ExpiresAt: exp},
			}),
			want: authdomain.ErrInvalidToken,
		},
		"non numeric subject": {
			raw: sign(t, []byte(testSecret), authdomain.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: "mealplan-auth", ExpiresAt: exp},
			}),
			want: authdomain.ErrInvalidToken,
		},
		"unknown role": {
			raw: sign(t, []byte(testSecret), authdomain.Claims{
				Role:             "owner",
				RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "mealplan-auth", ExpiresAt: exp},
			}),
			want: authdomain.ErrInvalidRole,
		},
		"no expiry": {
			raw: sign(t, []byte(testSecret), authdomain.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "mealplan-auth"},
			}),
			want: authdomain.ErrInvalidToken,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Verify(context.Background(), tc.raw); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	svc := New(Params{Cfg: config.Config{}, Log: zap.NewNop(), Clock: clock.NewFakeClock(time.Now())})
	if _, err := svc.Verify(context.Background(), "anything"); !errors.Is(err, authdomain.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}
