package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ternarybob/chatprobe/internal/app"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the summary of a past run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>...",
	Short: "Remove runs from history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistoryDelete,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 = all)")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if application.History == nil {
		return app.ErrHistoryDisabled
	}

	reports, err := application.History.ListReports(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tPASSED\tFAILED\tTARGET")
	for _, report := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			report.RunID,
			report.StartedAt.Local().Format("2006-01-02 15:04:05"),
			report.Status(),
			report.PassedCount(),
			report.FailedCount(),
			report.BaseURL,
		)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if application.History == nil {
		return app.ErrHistoryDisabled
	}

	report, err := application.History.GetReport(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), application.Summary(report))
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	for _, runID := range args {
		if err := application.DeleteRun(cmd.Context(), runID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", runID)
	}
	return nil
}
