package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"spool/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(service *api.Service) error {
				item, err := service.Describe(cmd.Context(), id)
				if err != nil {
					if api.IsNotFound(err) {
						return fmt.Errorf("no item with id %d", id)
					}
					return err
				}
				printItem(cmd, item)
				return nil
			})
		},
	}
}

func printItem(cmd *cobra.Command, item api.Item) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Item %d\n", item.ID)
	fmt.Fprintf(out, "  Source:    %s\n", item.SourceRef)
	if item.OwnerID != "" {
		fmt.Fprintf(out, "  Owner:     %s\n", item.OwnerID)
	}
	if item.Title != "" {
		fmt.Fprintf(out, "  Title:     %s\n", item.Title)
	}
	fmt.Fprintf(out, "  Status:    %s\n", item.Status)
	if item.DurationSeconds > 0 {
		fmt.Fprintf(out, "  Duration:  %.1fs\n", item.DurationSeconds)
	}
	if item.VideoFile != "" {
		fmt.Fprintf(out, "  Video:     %s\n", item.VideoFile)
	}
	if item.AudioFile != "" {
		fmt.Fprintf(out, "  Audio:     %s\n", item.AudioFile)
	}
	if item.TranscriptFile != "" {
		fmt.Fprintf(out, "  Transcript: %s\n", item.TranscriptFile)
	}
	if len(item.RetryCounts) > 0 {
		stages := make([]string, 0, len(item.RetryCounts))
		for stage := range item.RetryCounts {
			stages = append(stages, stage)
		}
		sort.Strings(stages)
		for _, stage := range stages {
			fmt.Fprintf(out, "  Retries[%s]: %d\n", stage, item.RetryCounts[stage])
		}
	}
	if item.LastError != "" {
		fmt.Fprintf(out, "  Last error: %s\n", item.LastError)
	}
	fmt.Fprintf(out, "  Cancel requested: %s\n", yesNo(item.CancelRequested))
	fmt.Fprintf(out, "  Created:   %s\n", item.CreatedAt)
	fmt.Fprintf(out, "  Updated:   %s\n", item.UpdatedAt)
}

func parseItemID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", value)
	}
	return id, nil
}
