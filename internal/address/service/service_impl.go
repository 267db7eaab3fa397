package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	addressdomain "github.com/smallbiznis/mealplan/internal/address/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo addressdomain.Repository
}

type Service struct {
	log  *zap.Logger
	repo addressdomain.Repository
}

func New(p Params) addressdomain.Service {
	return &Service{
		log:  p.Log.Named("address.service"),
		repo: p.Repo,
	}
}

func (s *Service) Resolve(ctx context.Context, userID, addressID snowflake.ID) (*addressdomain.Resolved, error) {
	addr, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if addr == nil || addr.UserID != userID {
		s.log.Debug("address not resolvable",
			zap.String("address_id", addressID.String()),
			zap.String("user_id", userID.String()),
		)
		return nil, addressdomain.ErrNotFound
	}
	return &addressdomain.Resolved{
		ID:       addr.ID,
		FullText: addr.FullText(),
		Lat:      addr.Latitude,
		Lng:      addr.Longitude,
	}, nil
}
