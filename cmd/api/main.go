package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"credlink/internal/config"
	"credlink/internal/infrastructure/db"
	"credlink/internal/infrastructure/logging"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "credlink",
		Short:        "Collateralized lending engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("db-driver", "mysql", "database driver (mysql, postgres, sqlite)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("app-port", "8080", "HTTP listen port")
	serveCmd.Flags().Bool("migrate", false, "run schema migrations before serving")
	root.AddCommand(serveCmd)

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	})

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate every active loan once using the price oracle",
		RunE:  runSweep,
	}
	sweepCmd.Flags().Int("sweep-limit", 500, "maximum loans per sweep, 0 for all")
	root.AddCommand(sweepCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := db.Migrate(a.db); err != nil {
			return err
		}
		logger.Info("schema migrated")
	}

	e := a.router()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.Bool("auth_enabled", cfg.AuthEnabled))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	gdb, err := db.OpenGorm(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	logger.Info("schema migrated", zap.String("driver", cfg.DBDriver))
	return nil
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := a.liquidations.Sweep(ctx, a.valuer, cfg.SweepLimit)
	if err != nil {
		return err
	}
	for _, f := range sum.Failures {
		logger.Warn("sweep failure", zap.String("loan_id", f.LoanID), zap.String("error", f.Error))
	}
	return nil
}
