package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"financial_analyzer/pkg/app"
	"financial_analyzer/pkg/config"
	"financial_analyzer/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "analyzer",
		Short: "Financial filing analyzer",
		Long: `analyzer pulls a company's latest 10-K or 10-Q from SEC EDGAR, extracts
the business, risk factor and MD&A sections, computes standard ratios from
XBRL company facts and renders a markdown report. Narrative insights from an
LLM and a same-SIC peer benchmark are optional.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode (dev or prod); defaults to LOG_MODE")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(filingCmd())
	rootCmd.AddCommand(reportsCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads settings, builds the application and runs fn with a context
// cancelled on SIGINT/SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	settings := config.Load()
	if mode, _ := cmd.Flags().GetString("log-mode"); mode != "" {
		settings.LogMode = mode
	}
	log, err := logger.New(settings.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, settings, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
