// Package config loads panesync settings with Viper from .panesync.yml,
// PANESYNC_ environment variables and bound command-line flags.
//
// Sections cover the chart layout, the synchronization groups, hit-test
// defaults, generated market data, the live session server, script watching
// and logging.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/panesync/internal/chart"
	"github.com/conneroisu/panesync/internal/chartsync"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/logging"
	"github.com/conneroisu/panesync/internal/mockdata"
	"github.com/conneroisu/panesync/internal/stockchart"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PANESYNC_SERVER_PORT.
const EnvPrefix = "PANESYNC"

// FileName is the default config file name without extension.
const FileName = ".panesync"

type Config struct {
	Layout  LayoutConfig  `mapstructure:"layout" yaml:"layout" json:"layout"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync" json:"sync"`
	HitTest HitTestConfig `mapstructure:"hittest" yaml:"hittest" json:"hittest"`
	Data    DataConfig    `mapstructure:"data" yaml:"data" json:"data"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch" json:"watch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

type LayoutConfig struct {
	Width   float64    `mapstructure:"width" yaml:"width" json:"width"`
	Height  float64    `mapstructure:"height" yaml:"height" json:"height"`
	Ratios  []float64  `mapstructure:"ratios" yaml:"ratios" json:"ratios"`
	Spacing float64    `mapstructure:"spacing" yaml:"spacing" json:"spacing"`
	Font    FontConfig `mapstructure:"font" yaml:"font" json:"font"`
}

type FontConfig struct {
	CharWidth  float64 `mapstructure:"char_width" yaml:"char_width" json:"char_width"`
	LineHeight float64 `mapstructure:"line_height" yaml:"line_height" json:"line_height"`
	TickLength float64 `mapstructure:"tick_length" yaml:"tick_length" json:"tick_length"`
	Padding    float64 `mapstructure:"padding" yaml:"padding" json:"padding"`
}

type SyncConfig struct {
	SizeMode  string `mapstructure:"size_mode" yaml:"size_mode" json:"size_mode"`
	RangeSync bool   `mapstructure:"range_sync" yaml:"range_sync" json:"range_sync"`
}

type HitTestConfig struct {
	Radius   float64 `mapstructure:"radius" yaml:"radius" json:"radius"`
	Mode     string  `mapstructure:"mode" yaml:"mode" json:"mode"`
	TieBreak string  `mapstructure:"tie_break" yaml:"tie_break" json:"tie_break"`
}

type DataConfig struct {
	Symbol     string        `mapstructure:"symbol" yaml:"symbol" json:"symbol"`
	Points     int           `mapstructure:"points" yaml:"points" json:"points"`
	Seed       int64         `mapstructure:"seed" yaml:"seed" json:"seed"`
	Start      string        `mapstructure:"start" yaml:"start" json:"start"`
	Interval   time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	StartPrice float64       `mapstructure:"start_price" yaml:"start_price" json:"start_price"`
	Volatility float64       `mapstructure:"volatility" yaml:"volatility" json:"volatility"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host" json:"host"`
	Port           int      `mapstructure:"port" yaml:"port" json:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`
	MaxConnections int      `mapstructure:"max_connections" yaml:"max_connections" json:"max_connections"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	layout := stockchart.DefaultLayout()
	data := mockdata.DefaultOptions()

	v.SetDefault("layout.width", layout.Width)
	v.SetDefault("layout.height", layout.Height)
	v.SetDefault("layout.ratios", layout.Ratios)
	v.SetDefault("layout.spacing", layout.Spacing)
	v.SetDefault("layout.font.char_width", layout.Metrics.CharWidth)
	v.SetDefault("layout.font.line_height", layout.Metrics.LineHeight)
	v.SetDefault("layout.font.tick_length", layout.Metrics.TickLength)
	v.SetDefault("layout.font.padding", layout.Metrics.Padding)

	v.SetDefault("sync.size_mode", layout.SizeSync.String())
	v.SetDefault("sync.range_sync", layout.RangeSync)

	v.SetDefault("hittest.radius", 8.0)
	v.SetDefault("hittest.mode", hittest.ModePoint.String())
	v.SetDefault("hittest.tie_break", hittest.TieBreakRegistration.String())

	v.SetDefault("data.symbol", data.Symbol)
	v.SetDefault("data.points", data.Count)
	v.SetDefault("data.seed", int64(42))
	v.SetDefault("data.start", data.Start.Format(time.RFC3339))
	v.SetDefault("data.interval", data.Interval)
	v.SetDefault("data.start_price", data.StartPrice)
	v.SetDefault("data.volatility", data.Volatility)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"localhost:*", "127.0.0.1:*"})
	v.SetDefault("server.max_connections", 64)

	v.SetDefault("watch.debounce", 250*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, charterrors.WrapConfig(err, charterrors.ErrCodeConfigInvalid, "cannot decode configuration")
	}

	// the root --log-level flag is bound to a top-level key
	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig reports the first validation error, if any.
func validateConfig(cfg *Config) error {
	result := ValidateConfigWithDetails(cfg)
	if !result.HasErrors() {
		return nil
	}
	first := result.Errors[0]
	return charterrors.NewConfigError(charterrors.ErrCodeConfigInvalid,
		fmt.Sprintf("invalid configuration: %s", first.Message)).
		WithContext("field", first.Field).
		WithSuggestions(first.Suggestions...)
}

// Metrics returns the font metrics for label measurement.
func (c LayoutConfig) Metrics() chart.FontMetrics {
	return chart.FontMetrics{
		CharWidth:  c.Font.CharWidth,
		LineHeight: c.Font.LineHeight,
		TickLength: c.Font.TickLength,
		Padding:    c.Font.Padding,
	}
}

// ChartLayout converts the layout and sync sections into a stock chart
// layout.
func (c *Config) ChartLayout() (stockchart.Layout, error) {
	mode, err := chartsync.ParseSizeSyncMode(c.Sync.SizeMode)
	if err != nil {
		return stockchart.Layout{}, err
	}
	return stockchart.Layout{
		Width:     c.Layout.Width,
		Height:    c.Layout.Height,
		Ratios:    c.Layout.Ratios,
		Spacing:   c.Layout.Spacing,
		Metrics:   c.Layout.Metrics(),
		SizeSync:  mode,
		RangeSync: c.Sync.RangeSync,
	}, nil
}

// StartTime parses data.start as RFC 3339 or a plain date.
func (c DataConfig) StartTime() (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, c.Start); err == nil {
			return t, nil
		}
	}
	return time.Time{}, charterrors.NewConfigError(charterrors.ErrCodeConfigInvalid,
		fmt.Sprintf("data.start %q is neither RFC 3339 nor YYYY-MM-DD", c.Start))
}

// GeneratorOptions converts the data section into generator options.
func (c DataConfig) GeneratorOptions() (mockdata.Options, error) {
	start, err := c.StartTime()
	if err != nil {
		return mockdata.Options{}, err
	}
	opts := mockdata.DefaultOptions()
	opts.Symbol = c.Symbol
	opts.Count = c.Points
	opts.Start = start
	opts.Interval = c.Interval
	opts.StartPrice = c.StartPrice
	opts.Volatility = c.Volatility
	return opts, nil
}

// ParsedMode parses hittest.mode.
func (c HitTestConfig) ParsedMode() (hittest.Mode, error) {
	return hittest.ParseMode(c.Mode)
}

// Engine builds a hit-test engine with the configured tie-break.
func (c HitTestConfig) Engine(logger logging.Logger) (*hittest.Engine, error) {
	tb, err := hittest.ParseTieBreak(c.TieBreak)
	if err != nil {
		return nil, err
	}
	return hittest.NewEngine(hittest.WithTieBreak(tb), hittest.WithLogger(logger)), nil
}

// Addr is host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggerConfig converts the logging section.
func (c LoggingConfig) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(c.Level)
	lc.Format = strings.ToLower(c.Format)
	return lc
}
