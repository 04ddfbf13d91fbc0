package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a ChartError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *ChartError {
	if err == nil {
		return nil
	}

	// Preserve pane/axis context from an inner ChartError
	var ce *ChartError
	if errors.As(err, &ce) {
		return &ChartError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ce,
			Context:     ce.Context,
			Pane:        ce.Pane,
			Axis:        ce.Axis,
			Series:      ce.Series,
			Recoverable: ce.Recoverable,
		}
	}

	return &ChartError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeData,
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *ChartError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *ChartError {
	ce := Wrap(err, ErrorTypeConfig, code, message)
	if ce != nil {
		ce.Recoverable = false
	}
	return ce
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *ChartError {
	ce := Wrap(err, ErrorTypeIO, code, message)
	if ce != nil {
		ce.Recoverable = false
	}
	return ce
}

// WrapData wraps an error as a data error
func WrapData(err error, code, message string) *ChartError {
	return Wrap(err, ErrorTypeData, code, message)
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

// FormatErrorWithSuggestions formats an error followed by any suggestions
// carried anywhere in its chain.
func FormatErrorWithSuggestions(err error) string {
	if err == nil {
		return ""
	}

	result := err.Error()
	var suggestions []string
	for cur := err; cur != nil; {
		var ce *ChartError
		if !errors.As(cur, &ce) {
			break
		}
		suggestions = append(suggestions, ce.Suggestions...)
		cur = ce.Cause
	}

	if len(suggestions) > 0 {
		result += "\n\nSuggestions:"
		for _, s := range suggestions {
			result += fmt.Sprintf("\n  • %s", s)
		}
	}

	return result
}

// GetErrorContext extracts context information from a ChartError
func GetErrorContext(err error) map[string]interface{} {
	var ce *ChartError
	if !errors.As(err, &ce) {
		return nil
	}

	context := make(map[string]interface{})
	for k, v := range ce.Context {
		context[k] = v
	}
	if ce.Pane != "" {
		context["pane"] = ce.Pane
	}
	if ce.Axis != "" {
		context["axis"] = ce.Axis
	}
	if ce.Series != "" {
		context["series"] = ce.Series
	}
	return context
}
