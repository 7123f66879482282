package tasks

import (
	"context"
	"fmt"
)

// newUsageReportTask creates the scheduled task that logs aggregate token
// usage across all users, for cost visibility.
func newUsageReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "usage_report")

	return func(ctx context.Context) error {
		totals, err := deps.Store.GetUsageTotals(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Usage report task failed", "error", err)
			return fmt.Errorf("usage report failed: %w", err)
		}

		log.InfoContext(ctx, "Token usage report",
			"users", totals.Users,
			"prompt_tokens", totals.PromptTokens,
			"completion_tokens", totals.CompletionTokens)
		return nil
	}
}
