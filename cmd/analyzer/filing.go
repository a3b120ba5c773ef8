package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"financial_analyzer/pkg/app"
	"financial_analyzer/pkg/core/filing"
	"financial_analyzer/pkg/core/pipeline"
)

func filingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filing <ticker>",
		Short: "Print a company's latest filing as text or markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _ := cmd.Flags().GetString("form")
			asMarkdown, _ := cmd.Flags().GetBool("markdown")
			meta, _ := cmd.Flags().GetBool("meta")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				ticker := strings.ToUpper(strings.TrimSpace(args[0]))
				identity, err := a.SEC.TickerToIdentity(ctx, ticker)
				if err != nil {
					return err
				}
				if identity == nil {
					return fmt.Errorf("%w: %s", pipeline.ErrTickerNotFound, ticker)
				}
				f, err := a.SEC.GetLatestFiling(ctx, identity.CIK10, form)
				if err != nil {
					return err
				}
				if f == nil {
					return fmt.Errorf("%w: %s", pipeline.ErrFilingNotFound, ticker)
				}

				out := cmd.OutOrStdout()
				if meta {
					fmt.Fprintf(out, "%s %s filed %s\naccession %s\n%s\n", identity.DisplayName(), f.Form, f.FilingDate, f.AccessionNumber, f.FilingURL)
					return nil
				}

				if asMarkdown && a.Markdown != nil && a.Markdown.Has(identity.CIK10, f.AccessionNumber) {
					if md := a.Markdown.Get(identity.CIK10, f.AccessionNumber); md != "" {
						a.Log.Debug("markdown cache hit", "accession", f.AccessionNumber)
						_, err := fmt.Fprintln(out, md)
						return err
					}
				}

				raw, err := a.SEC.GetFilingText(ctx, f.FilingURL)
				if err != nil {
					return err
				}
				if !asMarkdown {
					_, err := fmt.Fprintln(out, filing.ToText(raw))
					return err
				}

				md, err := filing.ToMarkdown(raw)
				if err != nil {
					return err
				}
				if a.Markdown != nil {
					if err := a.Markdown.Set(identity.CIK10, f.AccessionNumber, md); err != nil {
						a.Log.Warn("markdown cache write failed", "error", err)
					}
				}
				_, err = fmt.Fprintln(out, md)
				return err
			})
		},
	}
	cmd.Flags().String("form", "10-K", "Preferred filing form (10-K or 10-Q)")
	cmd.Flags().Bool("markdown", false, "Convert the filing HTML to markdown (cached per accession)")
	cmd.Flags().Bool("meta", false, "Only print filing metadata")
	return cmd
}
