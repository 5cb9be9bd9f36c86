package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client, catalogStore *catalog.Store) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.SessionMiddleware(cfg.Session.JWTSecret, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize stores
	cartStore := repository.NewCartStore(redisClient)
	sessionStore := repository.NewSessionStore(redisClient)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize services
	cartEngine := cart.NewEngine(cartStore, logger)
	authProvider := session.NewMockProvider(time.Duration(cfg.Session.AuthDelay) * time.Millisecond)
	sessions := session.NewStore(authProvider, sessionStore, cfg.Session.JWTSecret, logger)
	paymentClient := payment.NewHTTPClient(
		cfg.Payment.ProviderURL,
		time.Duration(cfg.Payment.Timeout)*time.Second,
		logger,
	)
	orchestrator := checkout.NewOrchestrator(
		cartEngine,
		sessions,
		paymentClient,
		orderRepo,
		time.Duration(cfg.Payment.CODDelay)*time.Millisecond,
		logger,
	)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogStore, logger)
	cartHandler := transport.NewCartHandler(cartEngine, catalogStore, logger)
	authHandler := transport.NewAuthHandler(sessions, logger)
	checkoutHandler := transport.NewCheckoutHandler(orchestrator, orderRepo, logger)

	// Auth endpoints get a tighter rate limit than the rest of the API
	authRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		KeyPrefix:         "rate_limit:auth",
	}, logger)

	requireAuth := custommiddleware.RequireAuth(logger)

	// Register routes
	catalogHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(authRateLimit)
		authHandler.RegisterRoutes(r, requireAuth)
	})
	checkoutHandler.RegisterRoutes(router, requireAuth)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	// Close redis connection
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
