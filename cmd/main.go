// Command shopadmin runs the shop admin server and its maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"

	"ShopAdmin/internal/config"
	"ShopAdmin/internal/db"
	"ShopAdmin/internal/logging"
	"ShopAdmin/internal/passwords"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "shopadmin",
	Short: "Shop admin server",
	Long: `shopadmin serves the shop administration panel: administrator login,
server-side sessions and the tax-rate editor. Settings come from the
environment and an optional .env file.`,
	SilenceUsage: true,
}

var (
	logLevel string
	dsnFlag  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "database-url", "", "override DATABASE_URL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dsnFlag != "" {
		cfg.DatabaseURL = dsnFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	a.logger.Info("opening database", zap.String("dsn", a.cfg.SafeDSN()))
	d, err := db.Open(ctx, a.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return d, nil
}

func (a *app) hasher() (passwords.Hasher, error) {
	return passwords.New(a.cfg.PasswordHash, a.cfg.BcryptCost)
}
