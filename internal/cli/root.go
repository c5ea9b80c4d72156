package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adspot-dev/adspot/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the adspot command tree. opts are passed to every
// subcommand.
func NewRootCmd(opts ...commands.Option) *cobra.Command {
	root := &cobra.Command{
		Use:   "adspot",
		Short: "AdSpot - billboard catalog administration",
		Long: `AdSpot CLI - Administer a local AdSpot installation.

Commands operate directly on the database named by DATABASE_URL (and .env),
so they work before first-run setup and without a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adspot version %s\n", version)
		},
	})

	// Add all subcommands
	root.AddCommand(commands.NewUserCmd(opts...))
	root.AddCommand(commands.NewAdminCmd(opts...))
	root.AddCommand(commands.NewCatalogCmd(opts...))

	return root
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
