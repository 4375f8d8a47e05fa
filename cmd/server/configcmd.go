package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"heropage/internal/config"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the search order and the effective config",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg  *config.Config
			path string
			err  error
		)
		if configPath != "" {
			cfg, path, err = config.LoadFromPath(configPath)
		} else {
			cfg, path, err = config.Load()
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Search order:")
		for _, p := range config.SearchPaths() {
			mark := " "
			if p == path {
				mark = "*"
			}
			fmt.Fprintf(out, " %s %s\n", mark, p)
		}
		if path == "" {
			fmt.Fprintln(out, "No config file found, using defaults")
		}
		fmt.Fprintln(out, cfg.Summary())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
