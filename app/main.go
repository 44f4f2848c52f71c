package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lysyi3m/spaces-comb/app/api"
	"github.com/lysyi3m/spaces-comb/app/cfg"
	"github.com/lysyi3m/spaces-comb/app/config"
	"github.com/lysyi3m/spaces-comb/app/metrics"
	"github.com/lysyi3m/spaces-comb/app/spaces"
	"github.com/lysyi3m/spaces-comb/app/twitter"
)

func main() {
	// Load configuration from environment variables and command-line flags
	appConfig, err := cfg.Load(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appConfig)

	slog.Info("Starting Spaces Comb server", "version", appConfig.Version)

	ops, err := config.LoadOperations(appConfig.UpstreamFile)
	if err != nil {
		slog.Error("Failed to load upstream operations", "file", appConfig.UpstreamFile, "error", err)
		os.Exit(1)
	}

	appMetrics := metrics.New(metrics.DefaultNamespace)

	// Initialize core components
	client := twitter.NewClient(ops,
		twitter.WithHTTPClient(&http.Client{Timeout: appConfig.UpstreamTimeout}),
		twitter.WithUserAgent(appConfig.UserAgent),
		twitter.WithPageSize(appConfig.PageSize),
		twitter.WithObserver(appMetrics),
	)
	aggregator := spaces.NewAggregator(spaces.NewCollector(client), client, client, appConfig.EnrichConcurrency)

	creds := appConfig.Credentials()
	if creds.AuthToken == "" {
		slog.Warn("AUTH_TOKEN not set, upstream requests will use guest tokens")
	}

	// Initialize HTTP server
	apiHandler := api.NewHandler(aggregator, client, api.Options{
		DefaultCount:    appConfig.DefaultCount,
		MaxCount:        appConfig.MaxCount,
		UpstreamTimeout: appConfig.UpstreamTimeout,
		BaseUrl:         appConfig.BaseUrl,
		Port:            appConfig.Port,
		Version:         appConfig.Version,
		Credentials:     creds,
	})
	server := api.NewServer(apiHandler, appMetrics)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appConfig.UpstreamTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		slog.Info("Endpoints available",
			"spaces", fmt.Sprintf("http://localhost:%s/spaces/<userId>", appConfig.Port),
			"rss", fmt.Sprintf("http://localhost:%s/spaces/<userId>/rss", appConfig.Port),
			"health", fmt.Sprintf("http://localhost:%s/health", appConfig.Port),
			"metrics", fmt.Sprintf("http://localhost:%s/metrics", appConfig.Port))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Spaces Comb server shutdown complete")
}

func setupLogger(c *cfg.Cfg) {
	var writer io.Writer = os.Stdout
	if c.LogFile != "" {
		writer = &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(writer, opts)
	if c.LogFormat == cfg.LogFormatJSON {
		handler = slog.NewJSONHandler(writer, opts)
	}
	slog.SetDefault(slog.New(handler))
}
