package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/auth"
	"github.com/adspot-dev/adspot/internal/models"
	"github.com/adspot-dev/adspot/internal/roles"
)

// NewUserCmd creates the user command group
func NewUserCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local accounts",
	}
	cmd.AddCommand(newUserCreateCmd(opts...))
	return cmd
}

func newUserCreateCmd(opts ...Option) *cobra.Command {
	var email, name, password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADSPOT_PASSWORD")
			}
			if password == "" {
				p, err := promptPassword()
				if err != nil {
					return err
				}
				password = p
			}

			env, release, err := openEnv(opts...)
			if err != nil {
				return err
			}
			defer release()
			return runUserCreate(cmd.Context(), env, email, name, password, admin)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ADSPOT_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Also grant the admin role")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func promptPassword() (string, error) {
	// Check if stdin is a terminal (not piped)
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or ADSPOT_PASSWORD env var)")
	}
	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func runUserCreate(ctx context.Context, env *Env, email, name, password string, admin bool) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	var existing int64
	if err := env.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to check for existing user: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("user %s already exists", email)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{Email: email, PasswordHash: hash, Name: strings.TrimSpace(name)}
	if err := env.DB.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Fprintf(env.Out, "✓ Created user %s (%s)\n", user.Email, user.ID)

	if admin {
		store := roles.NewStore(env.DB, env.Events, env.Logger)
		if err := store.Grant(ctx, user.ID, user.ID); err != nil {
			return err
		}
		fmt.Fprintln(env.Out, "  Role: Admin")
	}
	return nil
}

// findUserByEmail resolves the account a command argument names
func findUserByEmail(ctx context.Context, env *Env, email string) (*models.User, error) {
	var user models.User
	err := env.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}
