// Package validation checks user-supplied paths, origins and label formats
// before they reach the file system, the network or a tick label.
package validation

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ScriptExtensions are the file extensions a session script may use.
var ScriptExtensions = []string{".yaml", ".yml", ".json"}

// ValidatePath rejects empty paths, traversal components and shell
// metacharacters.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}

	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return fmt.Errorf("path traversal detected: %s", p)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\x00"}
	for _, char := range dangerousChars {
		if strings.Contains(p, char) {
			return fmt.Errorf("path contains dangerous character: %q", char)
		}
	}

	return nil
}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed (use %s)", ext, strings.Join(allowedExtensions, ", "))
}

// ValidateScriptPath checks a session script path.
func ValidateScriptPath(p string) error {
	if err := ValidatePath(p); err != nil {
		return err
	}
	return ValidateFileExtension(p, ScriptExtensions)
}

// ValidateOriginPattern checks a host pattern such as "localhost:*" or
// "*.example.com". Patterns use path.Match syntax.
func ValidateOriginPattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("origin pattern cannot be empty")
	}
	if strings.Contains(pattern, "://") {
		return fmt.Errorf("origin pattern %q must be a host pattern without a scheme", pattern)
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("malformed origin pattern %q: %w", pattern, err)
	}
	return nil
}

// ValidateOrigin checks a browser Origin header against host patterns.
func ValidateOrigin(origin string, patterns []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}
	if originURL.Host == "" {
		return fmt.Errorf("origin '%s' has no host", origin)
	}

	host := strings.ToLower(originURL.Host)
	for _, pattern := range patterns {
		if ok, _ := path.Match(strings.ToLower(pattern), host); ok {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// ValidateNumberFormat checks a printf format for numeric tick labels: it
// must hold exactly one floating-point verb. Literal text and "%%" are
// allowed around it.
func ValidateNumberFormat(format string) error {
	if format == "" {
		return fmt.Errorf("format cannot be empty")
	}

	verbs := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		// flags, width and precision
		for i < len(format) && strings.IndexByte("+-# 0123456789.", format[i]) >= 0 {
			i++
		}
		if i >= len(format) {
			return fmt.Errorf("format %q ends inside a verb", format)
		}
		switch format[i] {
		case '%':
			continue
		case 'e', 'E', 'f', 'F', 'g', 'G':
			verbs++
		default:
			return fmt.Errorf("format %q uses %%%c; numeric labels need one of %%e %%f %%g", format, format[i])
		}
	}

	if verbs != 1 {
		return fmt.Errorf("format %q must contain exactly one numeric verb, found %d", format, verbs)
	}
	return nil
}

// SanitizeInput removes null bytes and control characters other than
// common whitespace.
func SanitizeInput(input string) string {
	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}
