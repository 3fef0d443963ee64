package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-trainee/internal/config"
	"github.com/stemsi/exstem-trainee/internal/handler"
	"github.com/stemsi/exstem-trainee/internal/middleware"
	"github.com/stemsi/exstem-trainee/internal/response"
	"github.com/stemsi/exstem-trainee/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Account        *handler.AccountHandler
	TraineeLecture *handler.TraineeLectureHandler
}

// SetupRouter configures the TraineeLecture routes.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restrict to AllowedOrigins when set, otherwise allow all.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Account (Public, Rate Limited) ─────────────────────────────
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, time.Minute)
	account := router.Group("/api/Account")
	account.Use(loginLimiter.Middleware())
	{
		account.POST("/authentication", handlers.Account.Authenticate)
	}

	// ─── 2. Trainee Lecture (JWT) ──────────────────────────────────────
	lecture := router.Group("/api/TraineeLecture")
	lecture.Use(middleware.RequireTraineeJWT(authService))
	{
		lecture.POST("/get-exam", handlers.TraineeLecture.GetExam)
		lecture.POST("/start-exam", handlers.TraineeLecture.StartExam)
		lecture.POST("/finish-exam", handlers.TraineeLecture.FinishExam)
	}

	return router
}
