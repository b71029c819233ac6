package app

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gridvolt/internal/api"
	apihandlers "gridvolt/internal/api/handlers"
	"gridvolt/internal/api/middleware"
	"gridvolt/internal/auth"
	"gridvolt/internal/cache"
	"gridvolt/internal/config"
	"gridvolt/internal/db"
	"gridvolt/internal/ocpp"
	"gridvolt/internal/ocpp/handlers"
	"gridvolt/internal/ocpp/protocol"
	"gridvolt/internal/repository"
	"gridvolt/internal/service"
	"gridvolt/internal/ws"
)

// App wires all dependencies for the gridvolt server.
type App struct {
	httpServer *api.Server
	db         *sql.DB
	redis      *redis.Client
	manager    *ws.Manager
	logger     *zap.Logger
}

// New builds the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	store := repository.NewSQLStore(sqlDB)
	tracker := service.NewTransactionTracker()

	var redisClient *redis.Client
	var activeSessions *cache.ActiveSessionStore
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		activeSessions = cache.NewActiveSessionStore(redisClient, 24*time.Hour)
	}

	router := ocpp.NewRouter()
	parser := ocpp.NewParser()
	messageLog := repository.NewOCPPLogRepository(sqlDB)
	processor := ocpp.NewProcessor(parser, router, messageLog, logger)

	router.Register(protocol.ActionBootNotification, handlers.NewBootNotificationHandler(store, cfg.HeartbeatInterval(), logger))
	router.Register(protocol.ActionHeartbeat, handlers.NewHeartbeatHandler())
	router.Register(protocol.ActionStatusNotification, handlers.NewStatusNotificationHandler(store, logger))
	router.Register(protocol.ActionAuthorize, handlers.NewAuthorizeHandler(store, logger))
	router.Register(protocol.ActionStartTransaction, handlers.NewStartTransactionHandler(store, tracker, activeSessions, logger))
	router.Register(protocol.ActionMeterValues, handlers.NewMeterValuesHandler(store, tracker, logger))
	router.Register(protocol.ActionStopTransaction, handlers.NewStopTransactionHandler(store, tracker, activeSessions, logger))

	manager := ws.NewManager(cfg.PingInterval())
	wsServer := ws.NewServer(manager, processor, cfg.WriteTimeout(), logger)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	hasher := auth.NewBcryptHasher(0)

	userRepo := repository.NewUserRepository(sqlDB)
	stationRepo := repository.NewStationRepository(sqlDB)
	connectorRepo := repository.NewConnectorRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	statsRepo := repository.NewStatsRepository(sqlDB)

	handler := api.NewRouter(api.RouterDeps{
		AuthHandlers:     apihandlers.NewAuthHandlers(userRepo, hasher, tokens, logger),
		StationsHandlers: apihandlers.NewStationsHandlers(stationRepo, connectorRepo, logger),
		SessionsHandlers: apihandlers.NewSessionsHandlers(sessionRepo, activeSessions, logger),
		StatsHandlers:    apihandlers.NewStatsHandlers(statsRepo, logger),
		HealthHandler: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		},
		MetricsHandler: promhttp.Handler(),
		OCPPHandler:    wsServer.HandleWS,
	}, middleware.Auth(tokens))

	return &App{
		httpServer: api.NewServer(cfg.HTTPAddress(), handler, logger),
		db:         sqlDB,
		redis:      redisClient,
		manager:    manager,
		logger:     logger,
	}, nil
}

// Run starts the connection keepalive loop and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.manager.Start(ctx)
	return a.httpServer.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
