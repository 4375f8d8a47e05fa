// Command server serves the portfolio hero page.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

// rootCmd runs serve when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "heropage",
	Short: "Portfolio hero page server",
	Long: `heropage renders the portfolio hero section, streams tooltip state to
each open page over Server-Sent Events, and keeps the portrait's responsive
variants in a local sqlite catalog.

Examples:
  heropage serve --addr :3000
  heropage ingest ./images
  heropage ingest --manifest assets.yaml
  heropage export --format yaml > assets.yaml
  heropage config init`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $HERO_CONFIG, ./hero.yaml, XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format override (console|json)")

	addServeFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
