package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/logging"
	"github.com/conneroisu/panesync/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addOutputFlag adds -o/--output with format validation.
func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", string(output.FormatTable), "Output format (table|json|yaml|xlsx)")
	AddFlagValidation(cmd.Flags().Lookup("output"), ValidateFormat)
}

// AddFlagValidation wraps a flag so bad values are rejected while parsing.
func AddFlagValidation(flag *pflag.Flag, validator func(string) error) {
	if flag == nil {
		return
	}
	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormat accepts the output format names.
func ValidateFormat(s string) error {
	_, err := output.ParseFormat(s)
	return err
}

// ValidateMode accepts the hit-test mode names.
func ValidateMode(s string) error {
	_, err := hittest.ParseMode(s)
	return err
}

var logLevels = []string{"debug", "info", "warn", "error"}

// ValidateLogLevel accepts debug, info, warn and error in any case.
func ValidateLogLevel(s string) error {
	if strings.EqualFold(logging.ParseLevel(s).String(), strings.TrimSpace(s)) {
		return nil
	}
	return charterrors.NewValidationError(charterrors.ErrCodeValidationFailed,
		fmt.Sprintf("invalid log level %q", s)).
		WithSuggestions(charterrors.SuggestIDs(strings.ToLower(s), logLevels)...)
}

// ValidatePort accepts 1-65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateFileExists accepts empty names and existing files.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return charterrors.NewIOError(charterrors.ErrCodeFileNotFound,
			fmt.Sprintf("file does not exist: %s", filename), err)
	}
	return nil
}
