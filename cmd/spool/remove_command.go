package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spool/internal/api"
	"spool/internal/services"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete an item and its artifact folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(service *api.Service) error {
				if err := service.Remove(cmd.Context(), id); err != nil {
					switch {
					case api.IsNotFound(err):
						return fmt.Errorf("no item with id %d", id)
					case errors.Is(err, services.ErrConflict):
						return fmt.Errorf("item %d is being processed; cancel it first", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
				return nil
			})
		},
	}
}
