// Package cli provides the command-line interface for rostercore.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rostercore/internal/cli/commands"
	"rostercore/internal/cli/config"
	"rostercore/internal/core"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	env := &commands.Env{}
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "rostercore",
		Short: "rostercore - student, instructor and course roster",
		Long: `rostercore manages a roster of students, instructors and courses with
bidirectional enrollment and assignment tracking. State persists to sqlite
by default; memory and postgres backends are selectable via configuration.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if flag := cmd.Root().PersistentFlags().Lookup("verbose"); flag != nil && flag.Changed {
				cfg.Verbose = true
			}
			env.Config = cfg
			env.OpenService = serviceOpener(cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default rostercore.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(commands.NewAddCommand(env))
	rootCmd.AddCommand(commands.NewEditCommand(env))
	rootCmd.AddCommand(commands.NewDeleteCommand(env))
	rootCmd.AddCommand(commands.NewListCommand(env))
	rootCmd.AddCommand(commands.NewSearchCommand(env))
	rootCmd.AddCommand(commands.NewEnrollCommand(env))
	rootCmd.AddCommand(commands.NewWithdrawCommand(env))
	rootCmd.AddCommand(commands.NewAssignCommand(env))
	rootCmd.AddCommand(commands.NewUnassignCommand(env))
	rootCmd.AddCommand(commands.NewExportCommand(env))
	rootCmd.AddCommand(commands.NewSaveCommand(env))
	rootCmd.AddCommand(commands.NewLoadCommand(env))
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// serviceOpener builds the store-opening closure used by every command.
func serviceOpener(cfg *config.Config) func() (*core.Service, func() error, error) {
	return func() (*core.Service, func() error, error) {
		store, err := core.OpenStore(core.StorageConfig{
			Driver:      core.StorageDriver(cfg.StorageDriver),
			SQLitePath:  cfg.SQLitePath,
			PostgresDSN: cfg.PostgresDSN,
		}, core.NewDefaultRulesEngine())
		if err != nil {
			return nil, nil, err
		}

		level := slog.LevelWarn
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		svc := core.NewService(store, core.WithLogger(logger))
		closer := func() error {
			if c, ok := store.(interface{ Close() error }); ok {
				return c.Close()
			}
			return nil
		}
		return svc, closer, nil
	}
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
