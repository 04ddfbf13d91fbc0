// Package cmd provides the panesync command line.
//
// Configuration System:
//
//	Configuration is read from several sources, highest priority first:
//	1. Command-line flags (--config, --port, --points, etc.)
//	2. PANESYNC_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (PANESYNC_SERVER_PORT, etc.)
//	4. Configuration files (.panesync.yml)
//
// Environment Variables:
//
//	PANESYNC_CONFIG_FILE: Path to custom configuration file
//	PANESYNC_LAYOUT_WIDTH: Override the chart width
//	PANESYNC_HITTEST_RADIUS: Override the default hit-test radius
//	And the rest following the PANESYNC_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/panesync/internal/config"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "panesync",
	Short: "Synchronized multi-pane stock chart layouts",
	Long: `panesync lays out a multi-pane stock chart whose panes share one time axis
and line up their plot areas, then drives it with pans, zooms, resizes and
pointer probes.

Key Features:
  • Visible range synchronization across panes
  • Axis gutter alignment from measured tick labels
  • Point, band and heatmap hit testing
  • Scripted replays with table, JSON, YAML and Excel output
  • A WebSocket session server for live interaction

Quick Start:
  panesync demo                          Print the initial layout
  panesync hittest --x 400 --y 120       Probe the price pane
  panesync replay script.yaml --watch    Replay a script on every save
  panesync serve                         Start the session server`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", charterrors.FormatErrorWithSuggestions(err))
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .panesync.yml, can also use PANESYNC_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("points", 0, "number of generated bars (default from data.points)")
	rootCmd.PersistentFlags().Int64("seed", 0, "random seed for generated data (default from data.seed)")

	AddFlagValidation(rootCmd.PersistentFlags().Lookup("log-level"), ValidateLogLevel)

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("data.points", rootCmd.PersistentFlags().Lookup("points"))
	viper.BindPFlag("data.seed", rootCmd.PersistentFlags().Lookup("seed"))
}

// initConfig selects the config file and enables environment overrides.
//
// Config file selection (highest to lowest):
//  1. --config flag
//  2. PANESYNC_CONFIG_FILE environment variable
//  3. .panesync.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(config.FileName)
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing file falls back to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
