// Package main is the entry point for the car listing web client.
//
// MAIN PACKAGE IN GO:
// main() should stay minimal. Its job is to:
// 1. Read configuration (YAML file plus environment overrides)
// 2. Create dependencies (logger, metrics, the cars API repository)
// 3. Start the server
//
// All actual logic lives in the internal/ packages.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"

	"github.com/sakif/car-listing/internal/config"
	"github.com/sakif/car-listing/internal/logging"
	"github.com/sakif/car-listing/internal/metrics"
	"github.com/sakif/car-listing/internal/repository/httpapi"
	"github.com/sakif/car-listing/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// CONFIG_PATH picks the file; without it config.yaml is used if present.
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		slog.Error("failed to build logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. SESSION SECRET ===
	// Without a configured secret every restart invalidates all cookies.
	// Generate one with: SESSION_SECRET=$(openssl rand -hex 32)
	secret := cfg.Server.SessionSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			logger.Error("failed to generate session secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Warn("SESSION_SECRET not set; using a random per-process secret")
	}

	// === 4. CARS API ===
	m := metrics.New()
	repo := httpapi.New(cfg.API.BaseURL,
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(m),
		httpapi.WithTimeout(cfg.API.Timeout),
	)

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:            cfg.Server.Port,
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		SessionSecret:   secret,
		SessionTTL:      cfg.Server.SessionTTL,
	}, repo, m, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("using cars API", slog.String("base_url", repo.BaseURL()))

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
