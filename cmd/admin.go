package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"ShopAdmin/internal/db"
	"ShopAdmin/internal/provision"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(a *app, d *db.DB) error {
			ids, err := d.AppliedMigrations(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("database is up to date", zap.Strings("migrations", ids))
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the ADMIN_SEED_* administrator if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(a *app, d *db.DB) error {
			if !a.cfg.HasSeed() {
				return fmt.Errorf("ADMIN_SEED_EMAIL and ADMIN_SEED_PASSWORD are not set")
			}
			hasher, err := a.hasher()
			if err != nil {
				return err
			}
			return seedAdmin(cmd.Context(), a.cfg, d, hasher, a.logger)
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var (
	adminName        string
	adminPasswordEnv string
)

var adminCreateCmd = &cobra.Command{
	Use:   "create EMAIL",
	Short: "Create an active administrator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := provision.ResolvePassword(adminPasswordEnv)
		if err != nil {
			return err
		}
		return withDB(cmd.Context(), func(a *app, d *db.DB) error {
			hasher, err := a.hasher()
			if err != nil {
				return err
			}
			id, err := provision.Create(cmd.Context(), d, hasher, args[0], password, adminName)
			if err != nil {
				return err
			}
			a.logger.Info("administrator created", zap.Int64("id", id), zap.String("email", db.NormalizeEmail(args[0])))
			return nil
		})
	},
}

var adminPasswdCmd = &cobra.Command{
	Use:   "passwd EMAIL",
	Short: "Set an administrator's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := provision.ResolvePassword(adminPasswordEnv)
		if err != nil {
			return err
		}
		return withDB(cmd.Context(), func(a *app, d *db.DB) error {
			hasher, err := a.hasher()
			if err != nil {
				return err
			}
			if err := provision.SetPassword(cmd.Context(), d, hasher, args[0], password); err != nil {
				return err
			}
			a.logger.Info("password updated", zap.String("email", db.NormalizeEmail(args[0])))
			return nil
		})
	},
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " EMAIL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(a *app, d *db.DB) error {
				if err := provision.SetActive(cmd.Context(), d, args[0], active); err != nil {
					return err
				}
				a.logger.Info("administrator updated",
					zap.String("email", db.NormalizeEmail(args[0])), zap.Bool("active", active))
				return nil
			})
		},
	}
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrators",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(a *app, d *db.DB) error {
			admins, err := provision.List(cmd.Context(), d)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tACTIVE\tCREATED")
			for _, adm := range admins {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", adm.ID, adm.Email, adm.FullName, adm.Active,
					time.Unix(adm.CreatedAt, 0).UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		})
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "full name")
	for _, c := range []*cobra.Command{adminCreateCmd, adminPasswdCmd} {
		c.Flags().StringVar(&adminPasswordEnv, "password-env", "", "read the password from this environment variable instead of prompting")
	}

	adminCmd.AddCommand(
		adminCreateCmd,
		adminPasswdCmd,
		setActiveCmd("deactivate", "Deactivate an administrator; open sessions stop working", false),
		setActiveCmd("activate", "Reactivate an administrator", true),
		adminListCmd,
	)
	rootCmd.AddCommand(migrateCmd, seedCmd, adminCmd)
}

// withDB loads settings, opens (and migrates) the database and runs fn.
func withDB(ctx context.Context, fn func(*app, *db.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	d, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(a, d)
}
