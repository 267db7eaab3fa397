package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	gocache "github.com/patrickmn/go-cache"
	"github.com/smallbiznis/mealplan/internal/clock"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"github.com/smallbiznis/mealplan/internal/plan/repository"
	"github.com/smallbiznis/mealplan/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	activeListKey   = "plans:active"
	activeCacheTTL  = 5 * time.Minute
	defaultSkipDays = 2
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     *repository.Repository
	Validate *validator.Validate
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     *repository.Repository
	validate *validator.Validate
	cache    *gocache.Cache
}

func New(p Params) plandomain.Service {
	return &Service{
		log:      p.Log.Named("plan.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		validate: p.Validate,
		cache:    gocache.New(activeCacheTTL, 2*activeCacheTTL),
	}
}

func (s *Service) ListActive(ctx context.Context) ([]plandomain.Response, error) {
	if cached, ok := s.cache.Get(activeListKey); ok {
		return cached.([]plandomain.Response), nil
	}

	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	resp := toResponses(items)
	s.cache.SetDefault(activeListKey, resp)
	return resp, nil
}

func (s *Service) GetActive(ctx context.Context, id string) (*plandomain.Plan, error) {
	planID, err := parseID(id)
	if err != nil {
		return nil, plandomain.ErrNotFound
	}

	key := "plan:" + planID.String()
	if cached, ok := s.cache.Get(key); ok {
		plan := cached.(plandomain.Plan)
		return &plan, nil
	}

	plan, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, plandomain.ErrNotFound
	}
	s.cache.SetDefault(key, *plan)
	return plan, nil
}

func (s *Service) List(ctx context.Context) ([]plandomain.Response, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) Get(ctx context.Context, id string) (*plandomain.Response, error) {
	planID, err := parseID(id)
	if err != nil {
		return nil, plandomain.ErrInvalidID
	}
	plan, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrNotFound
	}
	resp := toResponse(plan)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req plandomain.CreateRequest) (*plandomain.Response, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	plan := &plandomain.Plan{
		ID:           s.genID.Generate(),
		Name:         strings.TrimSpace(req.Name),
		Days:         req.Days,
		ValidityDays: req.ValidityDays,
		SkipDays:     defaultSkipDays,
		MRP:          req.MRP,
		Price:        req.Price,
		Tagline:      strings.TrimSpace(req.Tagline),
		BestFor:      strings.TrimSpace(req.BestFor),
		Features:     append([]string{}, req.Features...),
		IsPopular:    req.IsPopular,
		IsBestValue:  req.IsBestValue,
		IsActive:     true,
		SortOrder:    req.SortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.SkipDays != nil {
		plan.SkipDays = *req.SkipDays
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if plan.Name == "" {
		return nil, plandomain.ErrInvalidRequest
	}
	if err := checkTerms(plan); err != nil {
		return nil, err
	}
	plan.Slug = slug.Make(plan.Name)
	plan.Discount = plandomain.Discount(plan.MRP, plan.Price)

	if err := s.repo.Insert(ctx, plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, plandomain.ErrDuplicateSlug
		}
		return nil, err
	}
	s.invalidate(plan.ID)

	s.log.Info("plan created", zap.String("plan_id", plan.ID.String()), zap.String("slug", plan.Slug))
	resp := toResponse(plan)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req plandomain.UpdateRequest) (*plandomain.Response, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}
	planID, err := parseID(id)
	if err != nil {
		return nil, plandomain.ErrInvalidID
	}

	plan, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrNotFound
	}

	applyUpdate(plan, req)
	if plan.Name == "" {
		return nil, plandomain.ErrInvalidRequest
	}
	if err := checkTerms(plan); err != nil {
		return nil, err
	}
	plan.Slug = slug.Make(plan.Name)
	plan.Discount = plandomain.Discount(plan.MRP, plan.Price)
	plan.UpdatedAt = s.clock.Now()

	rows, err := s.repo.Save(ctx, plan)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, plandomain.ErrDuplicateSlug
		}
		return nil, err
	}
	if rows == 0 {
		return nil, plandomain.ErrNotFound
	}
	s.invalidate(plan.ID)

	resp := toResponse(plan)
	return &resp, nil
}

// Delete removes the plan outright. Subscriptions keep their snapshot.
func (s *Service) Delete(ctx context.Context, id string) error {
	planID, err := parseID(id)
	if err != nil {
		return plandomain.ErrInvalidID
	}
	rows, err := s.repo.Delete(ctx, planID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return plandomain.ErrNotFound
	}
	s.invalidate(planID)
	s.log.Info("plan deleted", zap.String("plan_id", planID.String()))
	return nil
}

func (s *Service) invalidate(id snowflake.ID) {
	s.cache.Delete(activeListKey)
	s.cache.Delete("plan:" + id.String())
}

func applyUpdate(plan *plandomain.Plan, req plandomain.UpdateRequest) {
	if req.Name != nil {
		plan.Name = strings.TrimSpace(*req.Name)
	}
	if req.Days != nil {
		plan.Days = *req.Days
	}
	if req.ValidityDays != nil {
		plan.ValidityDays = *req.ValidityDays
	}
	if req.SkipDays != nil {
		plan.SkipDays = *req.SkipDays
	}
	if req.MRP != nil {
		plan.MRP = *req.MRP
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.Tagline != nil {
		plan.Tagline = strings.TrimSpace(*req.Tagline)
	}
	if req.BestFor != nil {
		plan.BestFor = strings.TrimSpace(*req.BestFor)
	}
	if req.Features != nil {
		plan.Features = append([]string{}, (*req.Features)...)
	}
	if req.IsPopular != nil {
		plan.IsPopular = *req.IsPopular
	}
	if req.IsBestValue != nil {
		plan.IsBestValue = *req.IsBestValue
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		plan.SortOrder = *req.SortOrder
	}
}

func checkTerms(plan *plandomain.Plan) error {
	if plan.Days > plan.ValidityDays {
		return plandomain.ErrDaysExceedValid
	}
	if plan.MRP > 0 && plan.Price > plan.MRP {
		return plandomain.ErrPriceExceedsMRP
	}
	return nil
}

func toResponses(items []*plandomain.Plan) []plandomain.Response {
	resp := make([]plandomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp
}

func toResponse(p *plandomain.Plan) plandomain.Response {
	features := []string(p.Features)
	if features == nil {
		features = []string{}
	}
	return plandomain.Response{
		ID:           p.ID.String(),
		Name:         p.Name,
		Slug:         p.Slug,
		Days:         p.Days,
		ValidityDays: p.ValidityDays,
		SkipDays:     p.SkipDays,
		MRP:          p.MRP,
		Price:        p.Price,
		Discount:     p.Discount,
		Savings:      p.MRP - p.Price,
		Tagline:      p.Tagline,
		BestFor:      p.BestFor,
		Features:     features,
		IsPopular:    p.IsPopular,
		IsBestValue:  p.IsBestValue,
		IsActive:     p.IsActive,
		SortOrder:    p.SortOrder,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, plandomain.ErrInvalidID
	}
	return snowflake.ID(id), nil
}
