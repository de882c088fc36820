// Package server provides the HTTP server and routing for TradeLab.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/config"
	"github.com/gabe/tradelab/internal/di"
	agenthandlers "github.com/gabe/tradelab/internal/modules/agent/handlers"
	markethandlers "github.com/gabe/tradelab/internal/modules/market_hours/handlers"
	portfoliohandlers "github.com/gabe/tradelab/internal/modules/portfolio/handlers"
	snapshothandlers "github.com/gabe/tradelab/internal/modules/snapshots/handlers"
	tradinghandlers "github.com/gabe/tradelab/internal/modules/trading/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Container.LedgerDB,
			cfg.Container.HistoryDB,
			cfg.Container.CacheDB,
			cfg.Container.MarketHours,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check sits outside /api so load balancers can reach it
	// without CORS or auth concerns.
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Streams are registered first and skip the shared timeout:
		// SSE and WebSocket connections are long-lived by design.
		streamHandler := NewEventsStreamHandler(s.container.Bus, s.log)
		r.Get("/events/stream", streamHandler.ServeHTTP)

		socketHandler := NewEventsSocketHandler(s.container.Bus, s.log)
		r.Get("/events/ws", socketHandler.ServeHTTP)

		// Everything else gets the request timeout.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			})

			quoteHandlers := NewQuoteHandlers(
				s.container.Quotes,
				s.container.PositionRepo,
				s.cfg.Watchlist,
				s.container.Bus,
				s.log,
			)
			r.Get("/quotes", quoteHandlers.HandleQuotes)

			dashboardHandlers := NewDashboardHandlers(
				s.container.PortfolioService,
				s.container.Engine,
				s.container.MarketHours,
				s.log,
			)
			r.Get("/dashboard", dashboardHandlers.HandleDashboard)

			portfolioHandler := portfoliohandlers.NewPortfolioHandlers(s.container.PortfolioService, s.log)
			portfolioHandler.RegisterRoutes(r)

			tradingHandler := tradinghandlers.NewTradingHandlers(s.container.Engine, s.log)
			tradingHandler.RegisterRoutes(r)

			marketHandler := markethandlers.NewHandler(s.container.MarketHours, s.log)
			marketHandler.RegisterRoutes(r)

			agentHandler := agenthandlers.NewHandler(s.container.AgentService, s.log)
			agentHandler.RegisterRoutes(r)

			snapshotHandler := snapshothandlers.NewHandler(s.container.SnapshotService, s.log)
			snapshotHandler.RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
