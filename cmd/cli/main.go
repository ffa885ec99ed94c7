package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benevolat/permaplan/cmd/cli/commands"
	"github.com/benevolat/permaplan/internal/config"
	"github.com/benevolat/permaplan/pkg/utils/logging"
)

var (
	configPath string
	verbose    bool
	app        *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "permaplan",
		Short: "Permaplan - monthly volunteer shift planning",
		Long:  `A CLI tool that assigns volunteers to a month of shifts: every opened shift gets 3-4 volunteers including a referent, rest windows are respected, and assignment counts track each volunteer's preference.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to permaplan.yaml (default: current then home directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(commands.PlanCmd(appRef()))
	rootCmd.AddCommand(commands.CheckRosterCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext; its fields are filled in by
// initApp before any RunE fires.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger and config
func initApp() error {
	a := appRef()
	a.Ctx = context.Background()

	logger, err := logging.InitLogger("permaplan", verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.Logger = logger

	a.Logger.Debug("Loading configuration")
	if configPath != "" {
		a.Cfg, err = config.LoadFromPath(configPath)
	} else {
		a.Cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a.Logger.Debug("Configuration loaded",
		zap.Int("month", a.Cfg.Month),
		zap.Int("year", a.Cfg.Year),
		zap.Int("time_budget_seconds", a.Cfg.TimeBudgetSeconds))

	return nil
}
