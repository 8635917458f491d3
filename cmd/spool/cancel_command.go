package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spool/internal/api"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Request cancellation of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(service *api.Service) error {
				ok, err := service.Cancel(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %d is already finished or does not exist\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for item %d\n", id)
				return nil
			})
		},
	}
}
