package cmd

import (
	"io"

	"github.com/conneroisu/panesync/internal/config"
	"github.com/conneroisu/panesync/internal/logging"
	"github.com/conneroisu/panesync/internal/mockdata"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/stockchart"
	"github.com/spf13/cobra"
)

// env is the loaded configuration and logger shared by every command.
type env struct {
	cfg    *config.Config
	logger logging.Logger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newEnv(cfg, cmd.ErrOrStderr()), nil
}

func newEnv(cfg *config.Config, logOut io.Writer) *env {
	lc := cfg.Logging.LoggerConfig()
	lc.Output = logOut
	return &env{cfg: cfg, logger: logging.NewLogger(lc)}
}

// newSession generates the configured price history, assembles the chart
// and wraps it in a session. Callers close the chart when done.
func (e *env) newSession() (*session.Session, error) {
	opts, err := e.cfg.Data.GeneratorOptions()
	if err != nil {
		return nil, err
	}
	layout, err := e.cfg.ChartLayout()
	if err != nil {
		return nil, err
	}
	engine, err := e.cfg.HitTest.Engine(e.logger)
	if err != nil {
		return nil, err
	}
	mode, err := e.cfg.HitTest.ParsedMode()
	if err != nil {
		return nil, err
	}

	prices := mockdata.NewPriceGenerator(e.cfg.Data.Seed).Generate(opts)
	c, err := stockchart.Build(prices, layout, stockchart.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	return session.New(c,
		session.WithLogger(e.logger),
		session.WithEngine(engine),
		session.WithHitTestDefaults(e.cfg.HitTest.Radius, mode),
	), nil
}
