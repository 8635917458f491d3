package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spool/internal/api"
	"spool/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(service *api.Service) error {
				status, err := service.Status(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildStatusRows(status.QueueStats)
				table := renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				)
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, table)
				fmt.Fprintf(out, "Total %d: %d waiting, %d processing, %d ready, %d failed, %d abandoned\n",
					status.Totals.Total,
					status.Totals.Waiting,
					status.Totals.Processing,
					status.Totals.Ready,
					status.Totals.Failed,
					status.Totals.Abandoned,
				)
				return nil
			})
		},
	}
}

// buildStatusRows orders counts by pipeline progression rather than
// alphabetically so the table reads top to bottom.
func buildStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[string(status)]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
	}
	return rows
}
