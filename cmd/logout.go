package cmd

import (
	"errors"
	"fmt"

	"stratus/internal/cli"

	"github.com/spf13/cobra"
)

// Logout-specific flags
var (
	logoutPurge bool
	logoutQuiet bool
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove cached accounts",
	Long: `Remove every account from the token cache.

With --purge the stored token cache itself is deleted as well, including
anything the identity provider library keeps alongside the accounts.

Examples:
  stratus logout            # Remove cached accounts
  stratus logout --purge    # Also delete the stored token cache`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutPurge, "purge", false, "Also delete the stored token cache")
	logoutCmd.Flags().BoolVarP(&logoutQuiet, "quiet", "q", false, "Suppress non-essential output")
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	services, err := clientServices(cmd)
	if err != nil {
		return err
	}
	defer services.Close()

	err = services.Auth.SignOut(ctx)
	if logoutPurge {
		if clearErr := services.Persistence.Clear(ctx); clearErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to delete token cache: %w", clearErr))
		}
	}
	if err != nil {
		return fmt.Errorf("sign-out incomplete: %w", err)
	}

	if !logoutQuiet {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out"))
	}
	return nil
}
