package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"financial_analyzer/pkg/api"
	"financial_analyzer/pkg/api/analysis"
	apiconfig "financial_analyzer/pkg/api/config"
	"financial_analyzer/pkg/app"
	"financial_analyzer/pkg/config"
	"financial_analyzer/pkg/logger"
)

func main() {
	// Load environment variables
	settings := config.Load()
	log := logger.FromEnv()
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, settings, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer a.Close()

	router := api.NewRouter(
		analysis.NewHandler(a.Pipeline, a.Reports, log),
		apiconfig.NewHandler(a.Agents),
		log,
	)
	if err := api.Serve(ctx, settings.APIAddr, router, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
