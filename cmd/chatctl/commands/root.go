// Package commands implements chatctl, the operator CLI for the chat API.
package commands

import (
	"context"

	"chatapi/infrastructure/config"
	"chatapi/infrastructure/di"

	"github.com/spf13/cobra"
)

// loadContainer builds the application from the environment. Tests replace
// it with an in-memory container.
var loadContainer = func(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return di.InitializeContainer(ctx, cfg)
}

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "chatctl",
		Short: "Operator tooling for the chat API store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		SilenceUsage:       true,
	}
	root.AddCommand(newRepairTagsCommand())
	root.AddCommand(newCreateAdminCommand())
	return root
}

// Execute runs the CLI against os.Args.
func Execute() error {
	root := NewRootCommand()
	root.SilenceErrors = true
	return root.Execute()
}

// withContainer runs fn with a container, releasing it afterwards.
func withContainer(cmd *cobra.Command, fn func(*di.Container) error) error {
	c, cleanup, err := loadContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(c)
}
