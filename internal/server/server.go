package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/mealplan/internal/address"
	"github.com/smallbiznis/mealplan/internal/audit"
	auditdomain "github.com/smallbiznis/mealplan/internal/audit/domain"
	"github.com/smallbiznis/mealplan/internal/auth"
	authdomain "github.com/smallbiznis/mealplan/internal/auth/domain"
	"github.com/smallbiznis/mealplan/internal/authorization"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/events"
	"github.com/smallbiznis/mealplan/internal/fooditem"
	"github.com/smallbiznis/mealplan/internal/observability"
	obsmiddleware "github.com/smallbiznis/mealplan/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/mealplan/internal/observability/metrics"
	obstracing "github.com/smallbiznis/mealplan/internal/observability/tracing"
	"github.com/smallbiznis/mealplan/internal/payment"
	"github.com/smallbiznis/mealplan/internal/plan"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"github.com/smallbiznis/mealplan/internal/providers"
	"github.com/smallbiznis/mealplan/internal/ratelimit"
	"github.com/smallbiznis/mealplan/internal/subscription"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"github.com/smallbiznis/mealplan/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	events.Module,
	auth.Module,
	plan.Module,
	fooditem.Module,
	address.Module,
	payment.Module,
	providers.Module,
	ratelimit.Module,
	subscription.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(correlation.GinMiddleware())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	planSvc         plandomain.Service
	subscriptionSvc subscriptiondomain.Service
	limiter         *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	PlanSvc         plandomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Limiter         *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
		limiter:         p.Limiter,
	}

	svc.registerPublicRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	s.engine.GET("/api/subscription/plans", s.ListActivePlans)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/subscription", s.AuthRequired())

	api.POST("/create", s.CreateSubscription)
	api.POST("/verify-payment", s.VerifyPayment)
	api.GET("/my-subscriptions", s.ListMySubscriptions)
	api.GET("/active", s.GetActiveSubscription)
	api.GET("/:id", s.GetSubscription)
	api.PATCH("/:id/schedule/:scheduleId", s.RescheduleRateLimit(), s.RescheduleEntry)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AuthRequired())

	// -------- Plans --------
	admin.GET("/subscription/plans", s.authorizeAction(authorization.ObjectPlan, authorization.ActionPlanView), s.ListPlans)
	admin.POST("/subscription/plan", s.authorizeAction(authorization.ObjectPlan, authorization.ActionPlanCreate), s.CreatePlan)
	admin.GET("/subscription/plan/:id", s.authorizeAction(authorization.ObjectPlan, authorization.ActionPlanView), s.GetPlan)
	admin.PUT("/subscription/plan/:id", s.authorizeAction(authorization.ObjectPlan, authorization.ActionPlanUpdate), s.UpdatePlan)
	admin.DELETE("/subscription/plan/:id", s.authorizeAction(authorization.ObjectPlan, authorization.ActionPlanDelete), s.DeletePlan)

	// -------- Subscriptions --------
	admin.GET("/subscription/stats", s.authorizeAction(authorization.ObjectStats, authorization.ActionStatsView), s.SubscriptionStats)
	admin.GET("/subscription/orders", s.authorizeAction(authorization.ObjectSubscription, authorization.ActionSubscriptionView), s.AdminListSubscriptions)
	admin.GET("/subscription/order/:id", s.authorizeAction(authorization.ObjectSubscription, authorization.ActionSubscriptionView), s.AdminGetSubscription)
	admin.PUT("/subscription/order/:id/status", s.authorizeAction(authorization.ObjectSubscription, authorization.ActionSubscriptionUpdate), s.AdminUpdateSubscriptionStatus)
	admin.PUT("/subscription/order/:id/schedule/:scheduleId", s.authorizeAction(authorization.ObjectSchedule, authorization.ActionScheduleUpdate), s.AdminUpdateEntryStatus)
	admin.GET("/subscription/order/:id/schedule.pdf", s.authorizeAction(authorization.ObjectSubscription, authorization.ActionSubscriptionExport), s.AdminScheduleManifest)

	// -------- Audit --------
	admin.GET("/audit-logs", s.authorizeAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
