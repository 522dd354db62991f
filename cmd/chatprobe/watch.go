package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ternarybob/chatprobe/internal/app"
	"github.com/ternarybob/chatprobe/internal/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the scenario sequence on a cron schedule until interrupted",
	RunE:  runWatch,
}

var (
	watchSchedule      string
	watchNow           bool
	watchScenarioNames []string
)

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron expression (overrides [watch] schedule)")
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "Run once immediately before waiting for the schedule")
	watchCmd.Flags().StringSliceVarP(&watchScenarioNames, "scenario", "s", nil, "Run only the named scenarios (repeatable)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	schedule := config.Watch.Schedule
	if watchSchedule != "" {
		schedule = watchSchedule
	}

	selected, err := application.Scenarios(watchScenarioNames)
	if err != nil {
		return err
	}

	_, err = application.Watch(ctx, schedule, watchNow, func(ctx context.Context) (*models.SessionReport, error) {
		if _, err := application.Preflight(ctx); err != nil {
			return application.AbortBeforeStart(app.StagePreflight, selected, err), err
		}
		return application.RunOnce(ctx, selected)
	})
	return err
}
