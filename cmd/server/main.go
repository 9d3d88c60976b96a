/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the storefront engine server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and environment configuration
  2. Build the zerolog logger
  3. Create the engine handler (manual clock + single owner)
  4. Load the startup scenario, if one is configured
  5. Start the clock driver, if a tick interval is configured
  6. Start the HTTP server with graceful shutdown

ENVIRONMENT:
  STOREFRONT_ADDR           Listen address (default :8080)
  STOREFRONT_LOG_LEVEL      zerolog level (default info)
  STOREFRONT_LOG_CONSOLE    Human-readable log output (default false)
  STOREFRONT_OWNER          Privileged identity (default "owner")
  STOREFRONT_TICK_INTERVAL  Wall time per logical tick, 0 disables (default 0s)
  STOREFRONT_CORS_ORIGINS   Allowed origins (default *)
  STOREFRONT_SCENARIO       Demo dataset to load at startup (default none)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the clock driver
  4. Exit

EXAMPLES:
  # Run empty on the default port
  ./server

  # Run the clearance demo with one tick per minute
  STOREFRONT_SCENARIO=clearance STOREFRONT_TICK_INTERVAL=1m ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Environment knobs
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/storefront-engine/api"
	"github.com/warp/storefront-engine/config"
	"github.com/warp/storefront-engine/logging"
	"github.com/warp/storefront-engine/market"
)

func main() {
	logger := logging.New(logging.Options{Service: "storefront"})

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger = logging.New(logging.Options{
		Service: "storefront",
		Level:   logging.ParseLevel(cfg.LogLevel),
		Console: cfg.LogConsole,
	})

	// Engine
	handler, err := api.NewHandler(market.Identity(cfg.Owner))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create engine")
	}
	if cfg.Scenario != "" {
		if err := handler.LoadScenarioByName(cfg.Scenario); err != nil {
			logger.Fatal().Err(err).Str("scenario", cfg.Scenario).Msg("failed to load startup scenario")
		}
		logger.Info().Str("scenario", cfg.Scenario).Msg("startup scenario loaded")
	}

	// Clock driver (no-op when the interval is zero)
	driver := api.NewClockDriver(handler.Clock(), cfg.TickInterval, logger)
	driver.Start()
	defer driver.Stop()

	// Router + server
	router := api.NewRouter(handler, logger, api.HeaderIdentity{}, cfg.CORSOrigins)
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("owner", cfg.Owner).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
