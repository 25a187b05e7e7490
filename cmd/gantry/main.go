/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/config"
	"github.com/friendsincode/gantry/internal/db"
	"github.com/friendsincode/gantry/internal/logging"
	"github.com/friendsincode/gantry/internal/seed"
	"github.com/friendsincode/gantry/internal/server"
	"github.com/friendsincode/gantry/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Gantry - maintenance planning backend",
	Long:  "Gantry is a maintenance planning backend with maintainer daily-agenda computation and availability views for planners.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Gantry server",
	Long:  "Start the HTTP API server along with the audit and event services",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE:  runMigrate,
}

var (
	seedMaintainers int
	seedActivities  int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load development fixtures into the database",
	RunE:  runSeed,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the Gantry version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedMaintainers, "maintainers", 5, "number of extra maintainer accounts")
	seedCmd.Flags().IntVar(&seedActivities, "activities", 150, "number of maintenance activities")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("Gantry starting")

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	logger.Info().Msg("Gantry stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Msg("migrations applied")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return seed.Run(database, logger, seedMaintainers, seedActivities)
}

// initDatabase initializes the database connection (used by subcommands)
func initDatabase() (*gorm.DB, error) {
	return db.Connect(cfg)
}
