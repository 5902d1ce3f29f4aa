package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Onboard is a guided setup conversation engine",
	Long: `Onboard walks a new organization through its setup (team, equipment, parts,
engineers and installations) as a conversation, talking to the backend for
invitations and bulk imports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		level, _ := cfg.Level()
		logger = cli.NewLogger(level, debug)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", os.Getenv("ONBOARD_CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
}

// newStack wires the engine from the loaded configuration.
func newStack() (*cli.Stack, error) {
	stack, err := cli.NewStack(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing onboard: %w", err)
	}
	return stack, nil
}
