package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <script-file>",
		Short: "Parse a script file and create a new draft item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script file: %w", err)
			}
			item, err := ctx.client().Ingest(cmd.Context(), string(data))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created item %d: %s (%s)\n", item.ID, item.Title, stateLabel(item.State))
			return nil
		},
	}
}

func newReplaceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <id> <script-file>",
		Short: "Replace the script of a draft or script_ready item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read script file: %w", err)
			}
			item, err := ctx.client().ReplaceScript(cmd.Context(), id, string(data))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced script on item %d: %s\n", item.ID, item.Title)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var stateFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := ctx.client().ListItems(cmd.Context(), stateFilters...)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items found.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, itemRow(item))
			}
			out := renderTable(
				[]string{"ID", "Title", "State", "Remote ID", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&stateFilters, "state", nil, "Filter by state (repeatable)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showBody bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			item, err := ctx.client().DescribeItem(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Item %d\n", item.ID)
			fmt.Fprintf(out, "  Title:     %s\n", item.Title)
			fmt.Fprintf(out, "  State:     %s\n", stateLabel(item.State))
			if item.UploadInFlight {
				fmt.Fprintln(out, "  Upload:    in flight")
			}
			if item.VideoRef != "" {
				fmt.Fprintf(out, "  Video:     %s\n", item.VideoRef)
			}
			if item.RemoteID != "" {
				fmt.Fprintf(out, "  Remote ID: %s\n", item.RemoteID)
			}
			if item.ScheduledAt != "" {
				fmt.Fprintf(out, "  Scheduled: %s\n", item.ScheduledAt)
			}
			if item.ErrorDetail != "" {
				fmt.Fprintf(out, "  Error:     %s (failed in %s)\n", item.ErrorDetail, stateLabel(item.ErrorState))
			}
			fmt.Fprintf(out, "  Updated:   %s\n", formatTimestamp(item.UpdatedAt))
			if showBody && item.Body != "" {
				fmt.Fprintf(out, "\n%s\n", item.Body)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showBody, "body", false, "Include the script body")
	return cmd
}

func newFinalizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <id>",
		Short: "Mark an item's script as complete",
		Args:  cobra.ExactArgs(1),
		RunE:  itemActionRunE(ctx, "Finalized", func(c *commandContext, cmd *cobra.Command, id int64) (string, error) {
			item, err := c.client().Finalize(cmd.Context(), id)
			if err != nil {
				return "", err
			}
			return stateLabel(item.State), nil
		}),
	}
}

func newAttachCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <video-file>",
		Short: "Record the rendered video file for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			item, err := ctx.client().AttachVideo(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attached video to item %d (%s)\n", item.ID, stateLabel(item.State))
			return nil
		},
	}
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var metadataPath string

	cmd := &cobra.Command{
		Use:   "upload <id>",
		Short: "Start uploading an item's video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			item, err := ctx.client().StartUpload(cmd.Context(), id, strings.TrimSpace(metadataPath))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upload started for item %d (%s)\n", item.ID, stateLabel(item.State))
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataPath, "metadata", "", "YAML metadata file for the video listing")
	return cmd
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <id> <rfc3339-time>",
		Short: "Schedule the remote publish time for an uploaded item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			at, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return fmt.Errorf("parse time (want RFC3339, e.g. 2026-09-15T18:00:00Z): %w", err)
			}
			item, err := ctx.client().Schedule(cmd.Context(), id, at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d scheduled for %s\n", item.ID, item.ScheduledAt)
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Retry an errored item from where it failed",
		Args:  cobra.ExactArgs(1),
		RunE: itemActionRunE(ctx, "Retrying", func(c *commandContext, cmd *cobra.Command, id int64) (string, error) {
			item, err := c.client().Retry(cmd.Context(), id)
			if err != nil {
				return "", err
			}
			return stateLabel(item.State), nil
		}),
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an in-flight upload",
		Args:  cobra.ExactArgs(1),
		RunE: itemActionRunE(ctx, "Canceled", func(c *commandContext, cmd *cobra.Command, id int64) (string, error) {
			item, err := c.client().Cancel(cmd.Context(), id)
			if err != nil {
				return "", err
			}
			return stateLabel(item.State), nil
		}),
	}
}

func newFailCommand(ctx *commandContext) *cobra.Command {
	var detail string

	cmd := &cobra.Command{
		Use:   "fail <id>",
		Short: "Force an item into the error state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			item, err := ctx.client().MarkFailed(cmd.Context(), id, detail)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d marked failed (was %s)\n", item.ID, stateLabel(item.ErrorState))
			return nil
		},
	}

	cmd.Flags().StringVar(&detail, "reason", "operator marked failed", "Failure reason to record")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a finished or errored item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			if err := ctx.client().RemoveItem(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
			return nil
		},
	}
}

func itemActionRunE(ctx *commandContext, verb string, action func(*commandContext, *cobra.Command, int64) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseItemID(args[0])
		if err != nil {
			return err
		}
		state, err := action(ctx, cmd, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s item %d (%s)\n", verb, id, state)
		return nil
	}
}
