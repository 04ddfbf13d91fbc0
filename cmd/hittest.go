package cmd

import (
	"github.com/conneroisu/panesync/internal/output"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	hitPane   string
	hitX      float64
	hitY      float64
	hitOutput string
)

var hittestCmd = &cobra.Command{
	Use:   "hittest",
	Short: "Find the data points nearest a pixel",
	Long: `Probe the chart at a pixel position and list the hit series, nearest first.
Without --pane the pane under the point is used.

Examples:
  panesync hittest --x 420 --y 130
  panesync hittest --pane rsi --x 420 --y 500 --mode vertical
  panesync hittest --x 420 --y 130 --radius 2 -o json`,
	Aliases: []string{"ht"},
	RunE:    runHitTest,
}

func init() {
	rootCmd.AddCommand(hittestCmd)

	hittestCmd.Flags().StringVar(&hitPane, "pane", "", "pane id (default: the pane under the point)")
	hittestCmd.Flags().Float64Var(&hitX, "x", 0, "pixel x")
	hittestCmd.Flags().Float64Var(&hitY, "y", 0, "pixel y")
	hittestCmd.Flags().Float64("radius", 0, "hit radius in pixels (default from hittest.radius)")
	hittestCmd.Flags().String("mode", "point", "hit-test mode (point|vertical|interpolate)")
	addOutputFlag(hittestCmd, &hitOutput)
	AddFlagValidation(hittestCmd.Flags().Lookup("mode"), ValidateMode)

	hittestCmd.MarkFlagRequired("x")
	hittestCmd.MarkFlagRequired("y")

	viper.BindPFlag("hittest.radius", hittestCmd.Flags().Lookup("radius"))
	viper.BindPFlag("hittest.mode", hittestCmd.Flags().Lookup("mode"))
}

func runHitTest(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(hitOutput)
	if err != nil {
		return err
	}
	s, err := e.newSession()
	if err != nil {
		return err
	}
	defer s.Chart().Close()

	step, err := s.Apply(cmd.Context(), session.Event{
		Type: session.EventPointer,
		Pane: hitPane,
		X:    hitX,
		Y:    hitY,
	})
	if err != nil {
		return err
	}
	return output.WriteHits(cmd.OutOrStdout(), format, step.Hits)
}
