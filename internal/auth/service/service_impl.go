package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	authdomain "github.com/smallbiznis/mealplan/internal/auth/domain"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	log    *zap.Logger
	secret []byte
	issuer string
	clock  clock.Clock
}

func New(p Params) authdomain.Service {
	return &Service{
		log:    p.Log.Named("auth.service"),
		secret: []byte(p.Cfg.AuthJWTSecret),
		issuer: p.Cfg.AuthJWTIssuer,
		clock:  p.Clock,
	}
}

func (s *Service) Verify(ctx context.Context, rawToken string) (*authdomain.Principal, error) {
	if len(s.secret) == 0 {
		return nil, authdomain.ErrNotConfigured
	}
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, authdomain.ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &authdomain.Claims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authdomain.ErrTokenExpired
		}
		s.log.Debug("token rejected", zap.Error(err))
		return nil, authdomain.ErrInvalidToken
	}
	if !token.Valid {
		return nil, authdomain.ErrInvalidToken
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(claims.Subject))
	if err != nil || userID == 0 {
		return nil, authdomain.ErrInvalidToken
	}

	role := strings.ToLower(strings.TrimSpace(claims.Role))
	switch role {
	case "":
		role = authdomain.RoleUser
	case authdomain.RoleUser, authdomain.RoleAdmin:
	default:
		return nil, authdomain.ErrInvalidRole
	}

	return &authdomain.Principal{UserID: userID, Role: role}, nil
}
