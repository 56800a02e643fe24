package routes

import (
	"net/http"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ecotrack/controllers"
	"ecotrack/middlewares"
)

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Entries     *controllers.EntryController
	Engagement  *controllers.EngagementController
	Leaderboard *controllers.LeaderboardController
	Admin       *controllers.AdminController
	WebSocket   gin.HandlerFunc
	Enforcer    *casbin.Enforcer
	Limiter     middlewares.Limiter
}

// SetupRouter builds the gin engine with every route registered.
func SetupRouter(h Handlers, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger())

	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The websocket handler authenticates itself so browsers can pass ?token=.
	if h.WebSocket != nil {
		router.GET("/ws/engagement", h.WebSocket)
	}

	auth := router.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		SetupEntryRoutes(auth, h.Entries, h.Limiter)
		SetupEngagementRoutes(auth, h.Engagement)
		SetupLeaderboardRoutes(auth, h.Leaderboard)
		SetupAdminRoutes(auth, h.Admin, h.Enforcer)
	}

	return router
}
