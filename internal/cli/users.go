package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/capabilities"
)

// UsersCmd returns the users command
func UsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(usersPromoteCmd())
	return cmd
}

func usersPromoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Set the role of an existing account",
		Long: `Set the role of an existing account. Accounts are created through /api/auth/signup
with the "user" role; this is the only way to grant "admin".

Examples:
  adoptctl users promote --email ana@example.com
  adoptctl users promote --email ana@example.com --role user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			roleFlag, _ := cmd.Flags().GetString("role")

			role, ok := capabilities.ParseRole(roleFlag)
			if !ok {
				return fmt.Errorf("invalid role: %s\nValid roles: user, admin", roleFlag)
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := users.NewService(store.Users(), nil)
			u, err := svc.Promote(cmd.Context(), email, role)
			if errors.Is(err, users.ErrNotFound) {
				return fmt.Errorf("no account with email %q", email)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", okMark, u.Email, color.New(color.Bold).Sprint(u.Role))
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("role", string(capabilities.RoleAdmin), "role to set (user or admin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
