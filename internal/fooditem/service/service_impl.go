package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	fooddomain "github.com/smallbiznis/mealplan/internal/fooditem/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo fooddomain.Repository
}

type Service struct {
	log  *zap.Logger
	repo fooddomain.Repository
}

func New(p Params) fooddomain.Service {
	return &Service{
		log:  p.Log.Named("fooditem.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*fooddomain.FoodItem, error) {
	raw, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || raw <= 0 {
		return nil, fooddomain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, snowflake.ID(raw))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fooddomain.ErrNotFound
	}
	return item, nil
}
