// Package main runs the Battlesnake webhook server.
//
// Settings come from an optional YAML file, then environment variables, then
// flags. The server answers every /move within the turn deadline.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvalinn/snek/config"
	"github.com/dvalinn/snek/logging"
	"github.com/dvalinn/snek/server"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	configPath := fs.String("config", getEnvOrDefault("SNEK_CONFIG", "snek.yaml"), "Path to YAML config (optional)")
	listen := fs.String("listen", "", "Listen address, overrides config")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
	logFormat := fs.String("log-format", "", "Log format (json, text, pretty), overrides config")
	fallback := fs.String("fallback", "", "Move when no food is on the board (up, first-safe), overrides config")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *fallback != "" {
		cfg.Fallback = *fallback
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.LogOptions())
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Info:          cfg.Info(),
		Agent:         cfg.Agent(),
		MoveTimeout:   cfg.MoveTimeout,
		LatencyBuffer: cfg.LatencyBuffer,
		Gzip:          cfg.Gzip,
		Logger:        logger,
	})

	logger.Info("battlesnake server listening",
		"addr", cfg.Listen,
		"fallback", cfg.Fallback,
		"move_timeout", cfg.MoveTimeout,
		"gzip", cfg.Gzip,
	)
	if err := srv.ListenAndServe(ctx, cfg.Listen, cfg.ReadHeaderTimeout); err != nil {
		log.Fatalf("server: %v", err)
	}
	logger.Info("server stopped")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
