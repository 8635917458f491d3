package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spool/internal/artifactstore"
	"spool/internal/handoff"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/workflow"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured external tools are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			artifacts := artifactstore.New(cfg)
			manager := workflow.NewManager(cfg, store, artifacts, logging.NewNop(), handoff.NewLogging(logging.NewNop()))

			records := manager.Health(cmd.Context())
			rows := make([][]string, 0, len(records))
			healthy := true
			for _, rec := range records {
				state := "ok"
				if !rec.Ready {
					state = "unavailable"
					healthy = false
				}
				rows = append(rows, []string{rec.Name, state, rec.Detail})
			}
			table := renderTable(
				[]string{"Stage", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			if !healthy {
				return fmt.Errorf("one or more stage tools are unavailable")
			}
			return nil
		},
	}
}
