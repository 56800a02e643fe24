package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"ecotrack/config"
	"ecotrack/controllers"
	"ecotrack/db"
	"ecotrack/internal/cache"
	"ecotrack/internal/events"
	"ecotrack/middlewares"
	"ecotrack/routes"
	"ecotrack/services"
	"ecotrack/utils"
	"ecotrack/websocket"
)

// Services is the engagement engine wired to its stores. The CLI uses it
// directly; the server puts HTTP on top.
type Services struct {
	Config       *config.Config
	Activities   services.ActivityStore
	Users        services.UserStore
	Engagement   *services.EngagementService
	Leaderboards *services.LeaderboardService
	Resetter     *services.PeriodResetter

	Redis   *redis.Client
	Limiter *cache.SubmissionLimiter
	Now     services.Clock
}

// Configure applies the process-wide settings from cfg.
func Configure(cfg *config.Config) {
	utils.SetLogLevel(utils.ParseLevel(cfg.Logging.Level))
	utils.SetJWTSecret(cfg.JWT.Secret)
	gin.SetMode(cfg.Server.Mode)
}

// ConnectStores opens MongoDB and ensures indexes.
func ConnectStores(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	if err := db.ConnectMongoDB(cfg.Database.URI, cfg.Database.Name, cfg.Database.Timeout); err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx, db.MongoDatabase); err != nil {
		return nil, err
	}
	utils.LogInfo("Connected to MongoDB")
	return db.MongoDatabase, nil
}

// NewServices wires the engine over the given stores. events may be nil.
// Redis is optional: without it there is no leaderboard snapshot cache and
// no submission limit.
func NewServices(cfg *config.Config, activities services.ActivityStore, users services.UserStore, rdb *redis.Client, publisher services.EventPublisher, now services.Clock) (*Services, error) {
	if now == nil {
		now = services.SystemClock
	}
	loc := cfg.Location()

	policy, err := services.PolicyByName(cfg.Engagement.ResetPolicy, loc)
	if err != nil {
		return nil, err
	}

	var boardCache services.LeaderboardCache
	var limiter *cache.SubmissionLimiter
	if rdb != nil {
		boardCache = cache.NewLeaderboardCache(rdb, cfg.Engagement.LeaderboardCacheTTL)
		limiter = cache.NewSubmissionLimiter(rdb, cfg.Engagement.SubmissionsPerMinute, time.Minute)
	}

	aggregator := services.NewLeaderboardAggregator(activities, users, now, cfg.Engagement.LeaderboardLimit, cfg.Engagement.MaxLeaderboardLimit)
	return &Services{
		Config:       cfg,
		Activities:   activities,
		Users:        users,
		Engagement:   services.NewEngagementService(activities, users, publisher, now, loc),
		Leaderboards: services.NewLeaderboardService(aggregator, boardCache),
		Resetter:     services.NewPeriodResetter(users, policy, now),
		Redis:        rdb,
		Limiter:      limiter,
		Now:          now,
	}, nil
}

// OpenServices connects every backing store named in cfg and wires the engine.
func OpenServices(ctx context.Context, cfg *config.Config, publisher func(*redis.Client) services.EventPublisher) (*Services, error) {
	database, err := ConnectStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		utils.LogInfo("Connected to Redis at %s", cfg.Redis.Addr)
	}

	var pub services.EventPublisher
	if publisher != nil {
		pub = publisher(rdb)
	}
	return NewServices(cfg, db.NewActivityStore(database, cfg.Database.Timeout), db.NewUserStore(database, cfg.Database.Timeout), rdb, pub, nil)
}

// Close releases the store connections.
func (s *Services) Close(ctx context.Context) {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			utils.LogWarn("close redis: %v", err)
		}
	}
	if err := db.Disconnect(ctx); err != nil {
		utils.LogWarn("disconnect MongoDB: %v", err)
	}
}

// Application is the HTTP server: engine, websocket hub and event fan-out.
type Application struct {
	services *Services
	hub      *websocket.Hub
	consumer *events.StreamConsumer
	server   *http.Server
}

// New connects the stores and builds the router. With Redis enabled events
// travel through the stream so every instance's hub sees them; otherwise
// they go straight to the local hub.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	Configure(cfg)

	hub := websocket.NewHub()
	svc, err := OpenServices(ctx, cfg, func(rdb *redis.Client) services.EventPublisher {
		if rdb != nil {
			return events.NewStreamPublisher(rdb, cfg.Redis.Stream)
		}
		return events.NewDirectPublisher(hub)
	})
	if err != nil {
		return nil, err
	}

	var consumer *events.StreamConsumer
	if svc.Redis != nil {
		consumer = events.NewStreamConsumer(svc.Redis, cfg.Redis.Stream, hub)
	}
	return NewWithServices(svc, hub, consumer)
}

// NewWithServices builds the HTTP layer over an already wired engine.
func NewWithServices(svc *Services, hub *websocket.Hub, consumer *events.StreamConsumer) (*Application, error) {
	enforcer, err := middlewares.NewEnforcer(svc.Config.RBAC.Policies)
	if err != nil {
		return nil, err
	}

	var limiter middlewares.Limiter
	if svc.Limiter != nil {
		limiter = svc.Limiter
	}
	router := routes.SetupRouter(routes.Handlers{
		Entries:     controllers.NewEntryController(svc.Activities, svc.Engagement, svc.Now, svc.Config.Location()),
		Engagement:  controllers.NewEngagementController(svc.Engagement),
		Leaderboard: controllers.NewLeaderboardController(svc.Leaderboards),
		Admin:       controllers.NewAdminController(svc.Resetter, svc.Leaderboards),
		WebSocket:   hub.Handler(),
		Enforcer:    enforcer,
		Limiter:     limiter,
	}, svc.Config.Server.AllowedOrigins)

	return &Application{
		services: svc,
		hub:      hub,
		consumer: consumer,
		server: &http.Server{
			Addr:              ":" + strconv.Itoa(svc.Config.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the router.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			return fmt.Errorf("start event consumer: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting on %s", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	utils.LogInfo("Shutting down server")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.services.Close(shutdownCtx)
	return nil
}
