package cmd

import (
	"github.com/conneroisu/panesync/internal/output"
	"github.com/spf13/cobra"
)

var demoOutput string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Build the stock chart and print its layout",
	Long: `Build the four-pane stock chart (price, MACD, RSI, volume) from generated
data and print every pane's plot area, gutters and visible ranges.

Examples:
  panesync demo                 # Table view
  panesync demo -o json         # JSON snapshot
  panesync demo --points 1000   # Longer history`,
	Aliases: []string{"d"},
	RunE:    runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	addOutputFlag(demoCmd, &demoOutput)
}

func runDemo(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(demoOutput)
	if err != nil {
		return err
	}
	s, err := e.newSession()
	if err != nil {
		return err
	}
	defer s.Chart().Close()

	return output.WriteSnapshot(cmd.OutOrStdout(), format, s.Snapshot())
}
