package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "scripts/pan.yaml", false},
		{"absolute", "/tmp/pan.yaml", false},
		{"dots in name", "scripts/pan..v2.yaml", false},
		{"empty", "", true},
		{"traversal", "../secrets.yaml", true},
		{"nested traversal", "scripts/../../x.yaml", true},
		{"command substitution", "$(rm -rf).yaml", true},
		{"pipe", "a|b.yaml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateScriptPath(t *testing.T) {
	assert.NoError(t, ValidateScriptPath("pan.yaml"))
	assert.NoError(t, ValidateScriptPath("pan.YML"))
	assert.NoError(t, ValidateScriptPath("pan.json"))
	assert.ErrorContains(t, ValidateScriptPath("pan.toml"), "not allowed")
	assert.ErrorContains(t, ValidateScriptPath("pan"), "extension")
	assert.Error(t, ValidateScriptPath("../pan.yaml"))
}

func TestValidateOrigin(t *testing.T) {
	patterns := []string{"localhost:*", "*.example.com"}
	tests := []struct {
		origin  string
		wantErr bool
	}{
		{"http://localhost:3000", false},
		{"https://LOCALHOST:8443", false},
		{"https://charts.example.com", false},
		{"https://example.com", true},
		{"http://evil.com", true},
		{"file://localhost:1", true},
		{"", true},
		{"http://", true},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			err := ValidateOrigin(tt.origin, patterns)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOriginPattern(t *testing.T) {
	assert.NoError(t, ValidateOriginPattern("localhost:*"))
	assert.NoError(t, ValidateOriginPattern("*"))
	assert.Error(t, ValidateOriginPattern(""))
	assert.Error(t, ValidateOriginPattern("http://localhost:*"))
	assert.Error(t, ValidateOriginPattern("[localhost"))
}

func TestValidateNumberFormat(t *testing.T) {
	valid := []string{"%.2f", "$%.4f", "%.2e", "%g%%", "% 8.3F", "%+.1f bps"}
	for _, f := range valid {
		assert.NoError(t, ValidateNumberFormat(f), f)
	}

	invalid := []string{"", "%d", "%s", "%.2f-%.2f", "price", "%.2", "%x"}
	for _, f := range invalid {
		assert.Error(t, ValidateNumberFormat(f), f)
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "price\tpane\n", SanitizeInput("pr\x00ice\tpa\x1bne\n"))
}
