package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "contest-bot/docs"
	"contest-bot/internal/common/middleware"
	"contest-bot/internal/domain/broadcast"
	"contest-bot/internal/domain/user"
	"contest-bot/internal/platform/telegram"
	"contest-bot/internal/service/stats"
)

// UpdateRouter consumes raw Telegram updates.
type UpdateRouter interface {
	Route(ctx context.Context, u telegram.Update)
}

type StatsProvider interface {
	Get(ctx context.Context) (*stats.Stats, error)
}

type RatingProvider interface {
	Top(ctx context.Context, limit int) ([]user.User, error)
}

type BroadcastLogs interface {
	List(ctx context.Context, limit int) ([]broadcast.Log, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type Deps struct {
	Updates    UpdateRouter
	Stats      StatsProvider
	Rating     RatingProvider
	Broadcasts BroadcastLogs
	Checks     []Check
}

type Options struct {
	Debug         bool
	Origins       []string
	BotToken      string
	WebhookSecret string
	AdminIDs      []int64
	InitDataTTL   time.Duration
}

const serviceName = "contest-bot"

// NewRouter builds the gin engine with the webhook, admin API and probes.
func NewRouter(deps Deps, opts Options) *gin.Engine {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	if len(opts.Origins) == 0 || (len(opts.Origins) == 1 && opts.Origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.Origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Telegram-Init-Data", "init_data"}
	router.Use(cors.New(corsConfig))

	NewWebhookHandler(deps.Updates).RegisterRoutes(router.Group("/telegram", middleware.WebhookSecret(opts.WebhookSecret)))

	v1 := router.Group("/api/v1")
	admin := v1.Group("/admin",
		middleware.TelegramInitData(opts.BotToken, opts.InitDataTTL),
		middleware.RequireAdmin(opts.AdminIDs),
	)
	NewAdminHandler(deps.Stats, deps.Rating, deps.Broadcasts).RegisterRoutes(admin)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerProbes(router, deps.Checks)
	return router
}

// NewServer wraps the handler with the production timeouts.
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerProbes(router *gin.Engine, checks []Check) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Fn(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   check.Name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
