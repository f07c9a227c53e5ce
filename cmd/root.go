// Package cmd implements the command-line interface for LicitaWatch.
package cmd

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cmdsources "github.com/jonesrussell/licitawatch/cmd/sources"
	"github.com/jonesrussell/licitawatch/cmd/watch"
)

const version = "1.0.0"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "licitawatch",
		Short: "A procurement-notice monitor",
		Long: `LicitaWatch polls configured procurement portals, detects newly
published notices, and pushes alerts to a Telegram channel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to config.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("licitawatch version %s\n", version)
		},
	})

	rootCmd.AddCommand(watch.Command(&cfgFile, &debug))
	rootCmd.AddCommand(cmdsources.Command(&cfgFile))
}
