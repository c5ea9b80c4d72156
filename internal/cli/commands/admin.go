package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adspot-dev/adspot/internal/roles"
)

// cliActor is recorded as the granter for roles changed from the command line
const cliActor = "cli"

// NewAdminCmd creates the admin role command group
func NewAdminCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator roles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <email>",
		Short: "Grant the admin role to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(env *Env) error {
				return runAdminGrant(cmd.Context(), env, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <email>",
		Short: "Remove the admin role from a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(env *Env) error {
				return runAdminRevoke(cmd.Context(), env, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List administrators",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(env *Env) error {
				return runAdminList(cmd.Context(), env)
			})
		},
	})

	return cmd
}

func withEnv(opts []Option, fn func(env *Env) error) error {
	env, release, err := openEnv(opts...)
	if err != nil {
		return err
	}
	defer release()
	return fn(env)
}

func runAdminGrant(ctx context.Context, env *Env, email string) error {
	user, err := findUserByEmail(ctx, env, email)
	if err != nil {
		return err
	}

	store := roles.NewStore(env.DB, env.Events, env.Logger)
	if err := store.Grant(ctx, user.ID, cliActor); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "✓ %s is now an administrator\n", user.Email)
	return nil
}

func runAdminRevoke(ctx context.Context, env *Env, email string) error {
	user, err := findUserByEmail(ctx, env, email)
	if err != nil {
		return err
	}

	store := roles.NewStore(env.DB, env.Events, env.Logger)
	err = store.Revoke(ctx, user.ID, cliActor)
	switch {
	case errors.Is(err, roles.ErrNotAdmin):
		return fmt.Errorf("%s is not an administrator", user.Email)
	case errors.Is(err, roles.ErrLastAdmin):
		return fmt.Errorf("%s is the last administrator; grant another user first", user.Email)
	case err != nil:
		return err
	}
	fmt.Fprintf(env.Out, "✓ %s is no longer an administrator\n", user.Email)
	return nil
}

func runAdminList(ctx context.Context, env *Env) error {
	store := roles.NewStore(env.DB, env.Events, env.Logger)
	list, err := store.List(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(env.Out, "No administrators found.")
		fmt.Fprintln(env.Out, "\nGrant one with: adspot admin grant <email>")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tUSER ID\tGRANTED AT")
	fmt.Fprintln(w, "─────\t────\t───────\t──────────")
	for _, role := range list {
		email, name := "", ""
		if role.User != nil {
			email, name = role.User.Email, role.User.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", email, name, role.UserID, role.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
