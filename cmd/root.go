// Package cmd implements the clilm command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/clilm/internal/config"
	"github.com/zjrosen/clilm/internal/log"

	// Register the built-in providers.
	_ "github.com/zjrosen/clilm/internal/client/providers/claude"
	_ "github.com/zjrosen/clilm/internal/client/providers/codex"
	_ "github.com/zjrosen/clilm/internal/client/providers/command"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// cfg is the loaded configuration, available to all subcommands.
var cfg config.Config

var (
	flagConfig   string
	flagProvider string
	flagModel    string
	flagWorkDir  string
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:   "clilm",
	Short: "Drive headless coding-agent CLIs as language models",
	Long: `clilm turns headless coding-agent CLIs (claude, codex, or any
command reading a prompt on stdin) into language-model backends with
structured prompting, response caching, and invocation history.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config file; there is nothing to load yet.
		if cmd.Name() == "init" {
			cfg = config.Defaults()
			return nil
		}

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}

		// Flags override file and environment settings.
		if flagProvider != "" {
			cfg.Provider = flagProvider
		}
		if flagModel != "" {
			cfg.Model = flagModel
		}
		if flagWorkDir != "" {
			cfg.WorkDir = flagWorkDir
		}
		if flagDebug {
			cfg.Log.Debug = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if cfg.Log.Path != "" {
			if err := log.Init(cfg.Log.Path, cfg.Log.Debug); err != nil {
				return err
			}
		}
		log.Debug(log.CatCmd, "configuration loaded", "provider", cfg.Provider)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.clilm/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "CLI backend: claude, codex, or command")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model override for the provider")
	rootCmd.PersistentFlags().StringVar(&flagWorkDir, "workdir", "", "working directory for spawned CLIs")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
