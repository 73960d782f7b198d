package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [resource-id]",
	Short: "Queue a sync+index pass",
	Long: `Queues a sync (content materialization) followed by an index (chunk +
embed) pass for a resource. If no resource ID is given, every registered
resource is queued.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		if err := scheduler.Ensure(ctx, args[0], domain.JobOverrides{}); err != nil {
			return fmt.Errorf("queuing sync: %w", err)
		}
		cmd.Printf("Queued sync for resource %s.\n", args[0])
		return nil
	}

	if resourceService == nil {
		return errors.New("resource service not configured")
	}
	resources, err := resourceService.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}
	for i := range resources {
		if err := scheduler.Ensure(ctx, resources[i].ID, domain.JobOverrides{}); err != nil {
			return fmt.Errorf("queuing sync for %s: %w", resources[i].ID, err)
		}
	}
	cmd.Printf("Queued sync for %d resources.\n", len(resources))
	return nil
}
