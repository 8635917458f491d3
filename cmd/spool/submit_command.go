package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spool/internal/api"
	"spool/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Add a media source to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(service *api.Service) error {
				item, err := service.Submit(cmd.Context(), args[0], owner)
				if err != nil {
					if errors.Is(err, queue.ErrDuplicateSource) {
						return fmt.Errorf("source is already queued: %s", args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued item %d (%s)\n", item.ID, item.SourceRef)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner identifier recorded on the item")
	return cmd
}
