package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/slidedeck/internal/cli"
	"github.com/aretw0/slidedeck/internal/config"
	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slidedeck",
	Short: "Slidedeck edits per-patient slide presentations",
	Long: `Slidedeck keeps one slide deck per patient with per-slide undo and redo.
It serves the decks over HTTP and MCP and can edit them from the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config file (default ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory, file, redis or sqlite")
	rootCmd.PersistentFlags().String("store-path", "", "Directory of the file store or database of the sqlite store")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for the redis store")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file and environment, then applies explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Backend, _ = flags.GetString("store")
	}
	if flags.Changed("store-path") {
		cfg.Store.Path, _ = flags.GetString("store-path")
	}
	if flags.Changed("redis") {
		cfg.Store.Redis.Addr, _ = flags.GetString("redis")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.ForFormat(cfg.Log.Format, level), nil
}

// openBackend is loadConfig followed by cli.OpenBackend.
func openBackend(cmd *cobra.Command) (*config.Config, *cli.Backend, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := cli.OpenBackend(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, b, logger, nil
}
