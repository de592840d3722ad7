package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			running := "stopped"
			if status.Running {
				running = fmt.Sprintf("running (pid %d)", status.PID)
			}
			fmt.Fprintf(out, "Daemon:    %s\n", running)
			publisher := "not configured"
			if status.PublisherOK {
				publisher = "ready"
			}
			fmt.Fprintf(out, "Publisher: %s\n", publisher)
			fmt.Fprintf(out, "Database:  %s\n", status.DBPath)
			fmt.Fprintf(out, "Items:     %d total, %d errored\n", status.Total, status.Errored)

			if len(status.Counts) > 0 {
				states := make([]string, 0, len(status.Counts))
				for state := range status.Counts {
					states = append(states, state)
				}
				sort.Strings(states)
				rows := make([][]string, 0, len(states))
				for _, state := range states {
					rows = append(rows, []string{stateLabel(state), fmt.Sprintf("%d", status.Counts[state])})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"State", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}
			return nil
		},
	}
}
