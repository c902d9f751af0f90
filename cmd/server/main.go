// cmd/server/main.go
// This is the entry point for the Club League API server.
// The "cmd/server" directory follows a common Go convention: the cmd/ folder holds executable
// binaries, and internal/ holds packages that are not meant to be imported by other projects.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	// fiber is a fast HTTP web framework inspired by Express.js
	"github.com/gofiber/fiber/v2"
	// cors allows the club's web and mobile clients to call the API from other origins
	"github.com/gofiber/fiber/v2/middleware/cors"
	// recover turns a panicking handler into a 500 instead of crashing the process
	"github.com/gofiber/fiber/v2/middleware/recover"
	// requestid tags every request with an X-Request-ID header for log correlation
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/trentd187/club-league/internal/config"
	"github.com/trentd187/club-league/internal/database"
	"github.com/trentd187/club-league/internal/fixtures"
	"github.com/trentd187/club-league/internal/handlers"
	"github.com/trentd187/club-league/internal/leagues"
	"github.com/trentd187/club-league/internal/lineups"
	"github.com/trentd187/club-league/internal/logging"
	"github.com/trentd187/club-league/internal/middleware"
	"github.com/trentd187/club-league/internal/repository"
	"github.com/trentd187/club-league/internal/rewards"
	"github.com/trentd187/club-league/internal/standings"
	"github.com/trentd187/club-league/internal/stats"
	"github.com/trentd187/club-league/internal/teams"
	"github.com/trentd187/club-league/internal/transfers"
	"github.com/trentd187/club-league/internal/wallet"
)

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet; a bare zerolog logger still gives JSON output.
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.IsDevelopment(), cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	// Connect to PostgreSQL. The *gorm.DB is shared by every repository.
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error().Err(err).Msg("closing database")
		}
	}()

	// Apply pending SQL migrations so the schema matches this binary.
	if err := database.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL, logger); err != nil {
		return err
	}

	// --- Domain services ---
	// Each service talks to storage only through its own repository port;
	// the GORM implementations live in internal/repository.
	clock := clockwork.NewRealClock()
	users := repository.NewUsers(db)
	services := handlers.Services{
		Fixtures: fixtures.NewService(repository.NewFixtures(db), fixtures.Config{
			DefaultIntervalDays: cfg.DefaultMatchIntervalDays,
			Location:            cfg.MatchLocation,
		}, logger),
		Standings: standings.NewService(repository.NewStandings(db)),
		Leagues:   leagues.NewService(repository.NewLeagues(db), clock, cfg.DefaultMatchIntervalDays, logger),
		Teams:     teams.NewService(repository.NewTeams(db), clock, logger),
		Transfers: transfers.NewService(repository.NewTransfers(db), clock, logger),
		Stats:     stats.NewService(repository.NewStats(db), clock, logger),
		Lineups:   lineups.NewService(repository.NewLineups(db), clock, cfg.LineupLockMinutes, logger),
		Rewards:   rewards.NewService(repository.NewRewards(db), clock, logger),
		Wallet:    wallet.NewService(repository.NewWallets(db), logger),
	}

	// Create the Fiber app. ErrorHandler turns domain errors into
	// {"error": {"code", "message"}} bodies with the matching status.
	app := fiber.New(fiber.Config{
		AppName:               "Club League API",
		ErrorHandler:          middleware.ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	// --- Global middleware ---
	// These run on every request before any route handler, in this order.
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New())
	app.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

	// GET /health is used by load balancers to decide whether to route traffic here.
	app.Get("/health", handlers.HealthCheck(users))

	// Everything else lives under /api/v1. middleware.Auth verifies the bearer
	// token and loads the caller with their roles.
	handlers.Register(app, middleware.Auth(cfg.JWTSecret, users), services)

	// Serve until SIGINT/SIGTERM, then drain in-flight requests for up to
	// ShutdownTimeout before returning.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("server stopped cleanly")
	return nil
}
