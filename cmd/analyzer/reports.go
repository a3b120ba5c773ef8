package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financial_analyzer/pkg/app"
)

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List saved reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			runs, _ := cmd.Flags().GetBool("runs")
			ticker, _ := cmd.Flags().GetString("ticker")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				defer tw.Flush()

				if runs {
					if a.Repo == nil {
						return fmt.Errorf("run history needs DATABASE_URL")
					}
					recs, err := a.Repo.ListRecent(ctx, ticker, limit)
					if err != nil {
						return err
					}
					fmt.Fprintln(tw, "RUN\tTICKER\tFORM\tCREATED")
					for _, r := range recs {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.RunID, r.Ticker, r.Form, r.CreatedAt.Format("2006-01-02 15:04:05"))
					}
					return nil
				}

				files, err := a.Reports.ListRecent(limit)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(tw, "No reports in %s\n", a.Reports.Dir())
					return nil
				}
				fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
				for _, f := range files {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.ModTime.Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "Maximum number of entries")
	cmd.Flags().Bool("runs", false, "List analysis runs stored in the database instead of report files")
	cmd.Flags().String("ticker", "", "Filter database runs by ticker")
	return cmd
}
