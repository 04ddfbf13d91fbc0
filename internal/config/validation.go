package config

import (
	"fmt"
	"math"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/conneroisu/panesync/internal/chartsync"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

func (vr *ValidationResult) addError(field string, value interface{}, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + "\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
	}
	write("❌ Validation Errors:", vr.Errors)
	write("⚠️  Validation Warnings:", vr.Warnings)

	return builder.String()
}

// ValidateConfigWithDetails checks every section and collects field-level
// errors and warnings.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateLayoutDetails(&config.Layout, result)
	validateSyncDetails(&config.Sync, result)
	validateHitTestDetails(&config.HitTest, result)
	validateDataDetails(&config.Data, result)
	validateServerDetails(&config.Server, result)
	validateWatchDetails(&config.Watch, result)
	validateLoggingDetails(&config.Logging, result)

	result.Valid = !result.HasErrors()
	return result
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func validateLayoutDetails(config *LayoutConfig, result *ValidationResult) {
	if !positive(config.Width) || !positive(config.Height) {
		result.addError("layout.width", fmt.Sprintf("%gx%g", config.Width, config.Height),
			"layout width and height must be positive",
			"Use the default 1200x800 or the size of the target surface")
	}
	if config.Spacing < 0 {
		result.addError("layout.spacing", config.Spacing, "spacing cannot be negative")
	}
	if n := len(config.Ratios); n != 0 && n != 4 {
		result.addWarning("layout.ratios", config.Ratios,
			fmt.Sprintf("%d ratios for 4 panes; missing ratios count as 1", n),
			"List one ratio per pane: price, macd, rsi, volume")
	}
	for _, r := range config.Ratios {
		if !positive(r) {
			result.addWarning("layout.ratios", r, "non-positive ratios count as 1")
			break
		}
	}
	if !positive(config.Font.CharWidth) {
		result.addError("layout.font.char_width", config.Font.CharWidth, "character width must be positive",
			"6 approximates a 10pt proportional font")
	}
	if !positive(config.Font.LineHeight) {
		result.addError("layout.font.line_height", config.Font.LineHeight, "line height must be positive")
	}
}

func validateSyncDetails(config *SyncConfig, result *ValidationResult) {
	if _, err := chartsync.ParseSizeSyncMode(config.SizeMode); err != nil {
		result.addError("sync.size_mode", config.SizeMode, fmt.Sprintf("unknown size sync mode %q", config.SizeMode),
			suggestionsFor(config.SizeMode, chartsync.SizeSyncModes)...)
	}
}

func validateHitTestDetails(config *HitTestConfig, result *ValidationResult) {
	if config.Radius < 0 || math.IsNaN(config.Radius) {
		result.addError("hittest.radius", config.Radius, "radius cannot be negative",
			"Use 0 for exact hits only")
	}
	if _, err := hittest.ParseMode(config.Mode); err != nil {
		result.addError("hittest.mode", config.Mode, fmt.Sprintf("unknown hit-test mode %q", config.Mode),
			suggestionsFor(config.Mode, hittest.Modes)...)
	}
	if _, err := hittest.ParseTieBreak(config.TieBreak); err != nil {
		result.addError("hittest.tie_break", config.TieBreak, fmt.Sprintf("unknown tie-break %q", config.TieBreak),
			suggestionsFor(config.TieBreak, hittest.TieBreaks)...)
	}
}

func validateDataDetails(config *DataConfig, result *ValidationResult) {
	if config.Points <= 0 {
		result.addError("data.points", config.Points, "points must be positive")
	} else if config.Points < 200 {
		result.addWarning("data.points", config.Points, "fewer than 200 bars leave the 200-period average empty")
	}
	if _, err := config.StartTime(); err != nil {
		result.addError("data.start", config.Start, "start must be RFC 3339 or YYYY-MM-DD",
			"Example: 2024-01-02T00:00:00Z")
	}
	if config.Interval <= 0 {
		result.addError("data.interval", config.Interval.String(), "interval must be positive",
			"Use a Go duration such as 1h or 15m")
	}
	if !positive(config.StartPrice) {
		result.addError("data.start_price", config.StartPrice, "start price must be positive")
	}
	if config.Volatility < 0 {
		result.addError("data.volatility", config.Volatility, "volatility cannot be negative")
	}
}

func validateServerDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.addError("server.port", config.Port, fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			"Use a port between 1024-65535 for non-privileged access",
			"Port 0 allows system to assign an available port")
	} else if config.Port > 0 && config.Port < 1024 {
		result.addWarning("server.port", config.Port, "port below 1024 requires elevated privileges")
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.addError("server.host", config.Host, err.Error(),
				"Use 'localhost' for local development",
				"Use '0.0.0.0' to bind to all interfaces")
		}
	}

	if config.MaxConnections < 0 {
		result.addError("server.max_connections", config.MaxConnections, "max connections cannot be negative",
			"Use 0 for no limit")
	}
	for _, origin := range config.AllowedOrigins {
		if err := validation.ValidateOriginPattern(origin); err != nil {
			result.addError("server.allowed_origins", origin, err.Error(),
				"Use host patterns such as 'localhost:*' or '*.example.com'")
			continue
		}
		if origin == "*" {
			result.addWarning("server.allowed_origins", origin, "any origin may open a session",
				"List the hosts that serve the chart page")
		}
	}
}

func validateWatchDetails(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.addError("watch.debounce", config.Debounce.String(), "debounce cannot be negative")
	} else if config.Debounce > 10*time.Second {
		result.addWarning("watch.debounce", config.Debounce.String(), "long debounce delays replays")
	}
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

func validateLoggingDetails(config *LoggingConfig, result *ValidationResult) {
	if !contains(logLevels, strings.ToLower(config.Level)) {
		result.addError("logging.level", config.Level, fmt.Sprintf("unknown log level %q", config.Level),
			suggestionsFor(config.Level, logLevels)...)
	}
	if !contains(logFormats, strings.ToLower(config.Format)) {
		result.addError("logging.format", config.Format, fmt.Sprintf("unknown log format %q", config.Format),
			suggestionsFor(config.Format, logFormats)...)
	}
}

// suggestionsFor offers the closest known values, or lists them all.
func suggestionsFor(value string, known []string) []string {
	if near := charterrors.SuggestIDs(value, known); len(near) > 0 {
		return near
	}
	return []string{"Valid values: " + strings.Join(known, ", ")}
}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}
	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
