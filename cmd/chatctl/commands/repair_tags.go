package commands

import (
	"fmt"

	"chatapi/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRepairTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair-tags",
		Short: "Detach tag references whose tag no longer exists",
		Long: `Scans every topic and removes tag ids that point at deleted tags.
Run it after a tag or category cascade reported a failed step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(c *di.Container) error {
				report, removed, err := c.Coordinator.RepairDanglingTags(cmd.Context())
				if err != nil {
					c.Logger.Error("Tag repair stopped", zap.String("step", report.Failed), zap.Error(err))
					return fmt.Errorf("repair stopped at %q after %d steps: %w", report.Failed, len(report.Completed), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d dangling tag references\n", removed)
				return nil
			})
		},
	}
}
