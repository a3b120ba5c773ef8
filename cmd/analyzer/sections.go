package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"financial_analyzer/pkg/app"
	"financial_analyzer/pkg/core/filing"
	"financial_analyzer/pkg/core/pipeline"
	"financial_analyzer/pkg/core/utils"
)

func sectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections [ticker]",
		Short: "Extract narrative sections from a filing",
		Long: `Extract the business, risk factor and MD&A sections with their offsets into
the normalized filing text. Reads the latest filing for a ticker, or a local
HTML/text file with --file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			form, _ := cmd.Flags().GetString("form")
			asJSON, _ := cmd.Flags().GetBool("json")

			if file == "" && len(args) == 0 {
				return fmt.Errorf("need a ticker or --file")
			}

			show := func(spans *filing.SpanSet, form string) error {
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(spans)
				}
				if spans.Len() == 0 {
					fmt.Fprintf(out, "No sections found for %s\n", form)
					return nil
				}
				for _, sp := range spans.Spans() {
					fmt.Fprintf(out, "[%s] %d-%d (%d chars)\n  %s\n", sp.Name, sp.Start, sp.End, len(sp.Text), utils.Truncate(sp.Text, 240))
				}
				return nil
			}

			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				return show(filing.NewExtractor(nil).Extract(toText(string(data)), form), form)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				det, err := pipeline.RunDeterministic(ctx, a.SEC, args[0], form)
				if err != nil {
					return err
				}
				return show(det.Sections, det.Filing.Form)
			})
		},
	}
	cmd.Flags().StringP("file", "f", "", "Local filing (HTML or plain text)")
	cmd.Flags().String("form", "10-K", "Document type (10-K or 10-Q)")
	cmd.Flags().Bool("json", false, "Print the span set as JSON")
	return cmd
}

func toText(raw string) string {
	if strings.Contains(raw, "<") {
		return filing.ToText(raw)
	}
	return filing.Normalize(raw)
}
