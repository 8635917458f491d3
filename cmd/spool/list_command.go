package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spool/internal/api"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(service *api.Service) error {
				items, err := service.List(cmd.Context(), owner)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := buildItemRows(items)
				table := renderTable(
					[]string{"ID", "Title", "Owner", "Status", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Only show items for this owner")
	return cmd
}

func buildItemRows(items []api.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.SourceRef
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			truncateCell(title, 48),
			item.OwnerID,
			item.Status,
			item.CreatedAt,
		})
	}
	return rows
}

func truncateCell(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
