package commands

import (
	"fmt"

	"chatapi/application/repositories"
	"chatapi/domain/entities"
	"chatapi/infrastructure/di"
	"chatapi/pkg/utils"

	"github.com/spf13/cobra"
)

func newCreateAdminCommand() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateEmail(email); err != nil {
				return err
			}
			if err := utils.ValidatePassword(password); err != nil {
				return err
			}
			return withContainer(cmd, func(c *di.Container) error {
				user, err := c.Users.Create(cmd.Context(), repositories.NewUser{
					Email:    email,
					Password: password,
					Name:     name,
					Role:     entities.RoleAdmin,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
