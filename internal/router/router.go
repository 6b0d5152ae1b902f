package router

import (
	"time"

	"github.com/lbc354/sgp/internal/config"
	"github.com/lbc354/sgp/internal/handler"
	"github.com/lbc354/sgp/internal/infra"
	"github.com/lbc354/sgp/internal/middleware"
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/repository"
	"github.com/lbc354/sgp/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, "global", 1000, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	totp := infra.NewTOTP(cfg.TOTPIssuer)
	challenges := infra.NewChallengeStore(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	demandRepo := repository.NewDemandRepository(db)
	resetTokenRepo := repository.NewResetTokenRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, resetTokenRepo, challenges, totp, mailer, cfg)
	userSvc := service.NewUserService(userRepo, totp, cfg)
	leaveSvc := service.NewLeaveService(leaveRepo, userRepo, demandRepo, mailer, cfg)
	demandSvc := service.NewDemandService(demandRepo, userRepo, mailer, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(userSvc)
	leavesH := handler.NewLeavesHandler(leaveSvc)
	demandsH := handler.NewDemandsHandler(demandSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(rdb), authH.Login)
		auth.POST("/mfa", middleware.LoginRateLimiter(rdb), authH.VerifyMFA)
		auth.POST("/password-reset/request", authH.RequestPasswordReset)
		auth.POST("/password-reset/confirm", authH.ConfirmPasswordReset)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	manager := middleware.RequireRole(model.RoleManager)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/profile", usersH.Profile)
		v1.PUT("/profile", usersH.UpdateProfile)
		v1.POST("/profile/password", authH.ChangePassword)

		// Account administration — managers only
		users := v1.Group("/users", manager)
		{
			users.POST("", usersH.Register)
			users.GET("", usersH.List)
			users.GET("/:id", usersH.Get)
			users.PATCH("/:id", usersH.Update)
			users.PATCH("/:id/activate", usersH.Activate)
			users.PATCH("/:id/deactivate", usersH.Deactivate)
			users.POST("/:id/disable-mfa", usersH.DisableMFA)
			users.POST("/:id/reset-password", usersH.ResetPassword)
		}

		// Leaves — board and history are visible to everyone (staff see
		// only themselves); mutations are manager-only
		leaves := v1.Group("/leaves")
		{
			leaves.GET("", leavesH.Board)
			leaves.GET("/users/:userID/history", leavesH.History)
			leaves.POST("", manager, leavesH.Create)
			leaves.PUT("/:id", manager, leavesH.Update)
			leaves.POST("/:id/interrupt", manager, leavesH.Interrupt)
			leaves.POST("/:id/resume", manager, leavesH.Resume)
		}

		// Demands — listing is shared (staff see their own); mutations are
		// manager-only
		demands := v1.Group("/demands")
		{
			demands.GET("", demandsH.List)
			demands.GET("/:id/history", demandsH.History)
			demands.GET("/workload", manager, demandsH.Workload)
			demands.POST("", manager, demandsH.Create)
			demands.PUT("/:id", manager, demandsH.Update)
			demands.POST("/:id/complete", manager, demandsH.Complete)
			demands.POST("/:id/reopen", manager, demandsH.Reopen)
		}
	}

	// Swagger UI — not exposed in production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
