package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"fitcore/internal/auth"
	"fitcore/internal/config"
	"fitcore/internal/credit"
	"fitcore/internal/email"
	"fitcore/internal/entitlement"
	"fitcore/internal/logger"
	"fitcore/internal/member"
	"fitcore/internal/membership"
	"fitcore/internal/plan"
	"fitcore/internal/provider"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	db          *sqlx.DB
	config      *config.Config
	email       *email.Service
	memberships membership.Service
}

func New(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	location, err := time.LoadLocation(cfg.GymTimezone)
	if err != nil {
		logger.Error("invalid gym timezone, falling back to UTC", "timezone", cfg.GymTimezone, "error", err)
		location = time.UTC
	}

	stripeClient := provider.NewStripeClient(cfg.StripeAPIKey, cfg.ProviderTimeout)

	planRepo := plan.NewRepository(db)
	planCache := plan.NewCache(rdb, planRepo, cfg.PlanCacheTTL)
	membershipRepo := membership.NewRepository(db)
	memberRepo := member.NewRepository(db)
	creditRepo := credit.NewRepository(db)
	usageRepo := entitlement.NewUsageRepository(db)

	notifier := member.NewNotifier(memberRepo, emailService)

	planService := plan.NewService(planRepo, planCache, stripeClient, membershipRepo)
	membershipService := membership.NewService(membershipRepo, planCache, memberRepo, stripeClient, notifier)
	creditService := credit.NewService(creditRepo, notifier)
	entitlementService := entitlement.NewService(membershipRepo, planCache, usageRepo, location)
	memberService := member.NewService(memberRepo, stripeClient, cfg.JWTSecret)

	planHandler := plan.NewHandler(planService)
	membershipHandler := membership.NewHandler(membershipService)
	creditHandler := credit.NewHandler(creditService)
	entitlementHandler := entitlement.NewHandler(entitlementService)
	memberHandler := member.NewHandler(memberService)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", memberHandler.Register)
		public.POST("/login", memberHandler.Login)
		public.POST("/refresh", memberHandler.Refresh)
	}

	router.POST("/webhooks/provider", ProviderWebhook(membershipService, cfg.StripeWebhookSecret))

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/members/me", memberHandler.Me)
		protected.DELETE("/members/me", memberHandler.DeleteMe)

		protected.GET("/plans", planHandler.ListPlans)

		protected.GET("/memberships/me", membershipHandler.ListMine)
		protected.POST("/memberships", membershipHandler.Purchase)
		protected.POST("/memberships/upgrade", membershipHandler.Upgrade)
		protected.POST("/memberships/:membershipID/cancel", membershipHandler.RequestCancellation)

		protected.GET("/entitlements/can-book", entitlementHandler.CanBook)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/plans", planHandler.CreatePlan)
		admin.PUT("/plans/:planID", planHandler.UpdatePlan)
		admin.POST("/plans/:planID/sync-pricing", planHandler.SyncPricing)
		admin.DELETE("/plans/:planID", planHandler.DeletePlan)

		admin.POST("/memberships/:membershipID/cancel", membershipHandler.CancelNow)
		admin.POST("/memberships/:membershipID/credits", creditHandler.Adjust)
		admin.GET("/memberships/:membershipID/credits", creditHandler.History)

		admin.DELETE("/members/:userID", memberHandler.DeleteMember)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router:      router,
		db:          db,
		config:      cfg,
		email:       emailService,
		memberships: membershipService,
	}
}

// Memberships exposes the lifecycle service for background sweeps.
func (s *Server) Memberships() membership.Service {
	return s.memberships
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start(port string) error {
	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
