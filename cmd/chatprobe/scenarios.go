package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scenario catalog",
	RunE:  runScenarios,
}

var scenariosVerbose bool

func init() {
	scenariosCmd.Flags().BoolVarP(&scenariosVerbose, "verbose", "v", false, "Show indicator groups")
}

func runScenarios(cmd *cobra.Command, args []string) error {
	all, err := application.Scenarios(nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSETTLE\tTITLE")
	for _, scenario := range all {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", scenario.Ordinal, scenario.Name, scenario.Settle, scenario.Title)
		if !scenariosVerbose {
			continue
		}
		if scenario.Path != "" {
			fmt.Fprintf(w, "\t\tpath\t%s\n", scenario.Path)
		}
		if scenario.Input != "" {
			fmt.Fprintf(w, "\t\tinput\t%q\n", scenario.Input)
		}
		for _, group := range scenario.Groups {
			for _, predicate := range group.Predicates {
				fmt.Fprintf(w, "\t\t%s\t%s\n", group.Label, predicate)
			}
		}
	}
	return w.Flush()
}
