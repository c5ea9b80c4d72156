package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adspot-dev/adspot/internal/catalog"
)

// NewCatalogCmd creates the catalog command group
func NewCatalogCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the billboard inventory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Create or update billboards from a YAML seed file",
		Long: `Create or update billboards from a YAML seed file.

Billboards are matched by name. Every entry is validated before anything
is written, so a bad entry leaves the catalog untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(env *Env) error {
				return runCatalogImport(cmd.Context(), env, args[0])
			})
		},
	})

	var activeOnly bool
	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List billboards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(env *Env) error {
				return runCatalogList(cmd.Context(), env, activeOnly)
			})
		},
	}
	list.Flags().BoolVar(&activeOnly, "active", false, "Only show billboards that are not paused")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Rewrite legacy billboards to the current schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(env *Env) error {
				svc := catalog.NewService(env.DB, env.Events, env.Logger)
				n, err := svc.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(env.Out, "✓ Migrated %d billboard(s)\n", n)
				return nil
			})
		},
	})

	return cmd
}

func runCatalogImport(ctx context.Context, env *Env, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	svc := catalog.NewService(env.DB, env.Events, env.Logger)
	result, err := svc.ImportYAML(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "✓ Imported %s: %d created, %d updated\n", path, result.Created, result.Updated)
	return nil
}

func runCatalogList(ctx context.Context, env *Env, activeOnly bool) error {
	svc := catalog.NewService(env.DB, env.Events, env.Logger)

	var (
		views []catalog.View
		err   error
	)
	if activeOnly {
		views, err = svc.ListActive(ctx)
	} else {
		views, err = svc.List(ctx)
	}
	if err != nil {
		return err
	}

	if len(views) == 0 {
		fmt.Fprintln(env.Out, "No billboards found.")
		fmt.Fprintln(env.Out, "\nAdd some with: adspot catalog import <file>")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLOCATION\tSIZE\tWEEKLY IMPRESSIONS\tSTATUS")
	fmt.Fprintln(w, "────\t────────\t────\t──────────────────\t──────")
	for _, v := range views {
		status := "active"
		if v.IsPaused {
			status = "paused"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.Name,
			v.Location,
			v.DisplaySize,
			catalog.FormatImpressions(v.WeeklyImpressions),
			status,
		)
	}
	return w.Flush()
}
