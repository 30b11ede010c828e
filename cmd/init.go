package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/clilm/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
	return nil
}
