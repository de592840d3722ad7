package main

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/api"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var since uint64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream lifecycle transitions as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			out := cmd.OutOrStdout()
			cursor := since
			for {
				resp, err := client.Events(cmd.Context(), cursor, 0, true)
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					var netErr net.Error
					if errors.As(err, &netErr) && netErr.Timeout() {
						continue
					}
					return err
				}
				for _, event := range resp.Events {
					printEvent(out, event)
				}
				cursor = resp.Next
			}
		},
	}

	cmd.Flags().Uint64Var(&since, "since", 0, "Resume from this event sequence")
	return cmd
}

func printEvent(out io.Writer, event api.TransitionEvent) {
	ts := event.Timestamp.Local().Format("15:04:05")
	switch {
	case event.Prev == "":
		fmt.Fprintf(out, "%s  item %d created (%s)\n", ts, event.ItemID, stateLabel(event.Next))
	case event.Detail != "":
		fmt.Fprintf(out, "%s  item %d: %s -> %s (%s)\n", ts, event.ItemID, stateLabel(event.Prev), stateLabel(event.Next), event.Detail)
	default:
		fmt.Fprintf(out, "%s  item %d: %s -> %s\n", ts, event.ItemID, stateLabel(event.Prev), stateLabel(event.Next))
	}
}
