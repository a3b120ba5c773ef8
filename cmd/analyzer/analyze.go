package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"financial_analyzer/pkg/app"
	"financial_analyzer/pkg/core/calc"
	"financial_analyzer/pkg/core/pipeline"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Analyze a company's latest filing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _ := cmd.Flags().GetString("form")
			ai, _ := cmd.Flags().GetBool("ai")
			peers, _ := cmd.Flags().GetBool("peers")
			save, _ := cmd.Flags().GetBool("save")
			asJSON, _ := cmd.Flags().GetBool("json")

			form = strings.ToUpper(form)
			if form != "10-K" && form != "10-Q" {
				return fmt.Errorf("--form must be 10-K or 10-Q, got %q", form)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Pipeline.Run(ctx, pipeline.Request{
					Ticker:        args[0],
					PreferredForm: form,
					RunInsights:   ai,
					RunPeers:      peers,
					SaveReport:    save,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}

				fmt.Fprintf(out, "%s (%s) %s filed %s\n", res.Identity.DisplayName(), res.Identity.Ticker, res.Filing.Form, res.Filing.FilingDate)
				fmt.Fprintf(out, "Sections: %s\n\n", strings.Join(res.Sections.Names(), ", "))
				for _, key := range calc.RatioKeys {
					r := res.Ratios.Get(key)
					value := "n/a"
					if r.Value != nil {
						value = fmt.Sprintf("%.4f", *r.Value)
					}
					fmt.Fprintf(out, "  %-18s %-12s %s\n", key, value, r.Quality)
				}
				fmt.Fprintf(out, "\n%s\n", res.Summary)
				if res.InsightError != "" {
					fmt.Fprintf(out, "\nInsights unavailable: %s\n", res.InsightError)
				}
				if res.PeerError != "" {
					fmt.Fprintf(out, "\nPeer benchmark unavailable: %s\n", res.PeerError)
				}
				if res.ReportPath != "" {
					fmt.Fprintf(out, "\nReport saved to %s\n", res.ReportPath)
				}
				if res.Persisted {
					fmt.Fprintf(out, "Run %s stored in database\n", res.RunID)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("form", "10-K", "Preferred filing form (10-K or 10-Q)")
	cmd.Flags().Bool("ai", false, "Extract narrative insights with the configured LLM")
	cmd.Flags().Bool("peers", false, "Benchmark ratios against same-SIC peers")
	cmd.Flags().Bool("save", false, "Save the markdown report (and the run, when DATABASE_URL is set)")
	cmd.Flags().Bool("json", false, "Print the full result as JSON")
	return cmd
}
