package main

import (
	"context"

	"github.com/spf13/cobra"

	"financial_analyzer/pkg/api"
	"financial_analyzer/pkg/api/analysis"
	apiconfig "financial_analyzer/pkg/api/config"
	"financial_analyzer/pkg/app"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Settings.APIAddr
				}
				router := api.NewRouter(
					analysis.NewHandler(a.Pipeline, a.Reports, a.Log),
					apiconfig.NewHandler(a.Agents),
					a.Log,
				)
				return api.Serve(ctx, addr, router, a.Log)
			})
		},
	}
	cmd.Flags().String("addr", "", "Listen address (defaults to API_ADDR)")
	return cmd
}
