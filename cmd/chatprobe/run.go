package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/chatprobe/internal/app"
	"github.com/ternarybob/chatprobe/internal/models"
	"github.com/ternarybob/chatprobe/internal/preflight"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario sequence once against the target",
	Long: `Probes the target, launches one browser session, executes every selected
scenario in order and prints the summary. Exits 1 when the run aborted, or
with --strict when any scenario failed.`,
	RunE: runRun,
}

var (
	runScenarioNames []string
	runStrict        bool
)

func init() {
	runCmd.Flags().StringSliceVarP(&runScenarioNames, "scenario", "s", nil, "Run only the named scenarios (repeatable)")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Exit non-zero when any scenario fails")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	selected, err := application.Scenarios(runScenarioNames)
	if err != nil {
		return err
	}

	probes, err := application.Preflight(ctx)
	printPreflight(cmd, probes)

	var result *models.SessionReport
	if err != nil {
		result = application.AbortBeforeStart(app.StagePreflight, selected, err)
	} else {
		result, _ = application.RunOnce(ctx, selected)
	}

	fmt.Fprint(cmd.OutOrStdout(), application.Summary(result))

	if code := app.ExitCode(result, runStrict); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func printPreflight(cmd *cobra.Command, result *preflight.Result) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()
	for _, probe := range result.Probes {
		mark := "ok  "
		switch {
		case probe.Skipped:
			mark = "skip"
		case !probe.OK:
			mark = "FAIL"
		}
		fmt.Fprintf(out, "preflight %-8s %s  %s  %s\n", probe.Name, mark, probe.Target, probe.Detail)
	}
}
