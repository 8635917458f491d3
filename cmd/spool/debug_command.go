package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"spool/internal/api"
)

func newDebugCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "debug <id>",
		Short: "Dump artifact-level state for an item as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(service *api.Service) error {
				info, err := service.Debug(cmd.Context(), id)
				if err != nil {
					if api.IsNotFound(err) {
						return fmt.Errorf("no item with id %d", id)
					}
					return err
				}
				payload, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return nil
			})
		},
	}
}
