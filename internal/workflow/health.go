package workflow

import (
	"context"

	"spool/internal/stage"
)

// Health reports the readiness of every configured stage handler.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	var out []stage.Health
	for _, lane := range m.lanes {
		for _, stg := range lane.stages {
			if stg.handler == nil {
				out = append(out, stage.Unhealthy(stg.name, "handler not configured"))
				continue
			}
			out = append(out, stg.handler.HealthCheck(ctx))
		}
	}
	return out
}

// StalledItems returns the IDs flagged by the most recent stall sweep.
func (m *Manager) StalledItems() []int64 {
	return m.stall.StalledItems()
}
