//go:build property
// +build property

package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/viper"
)

func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	base, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatal(err)
	}

	properties.Property("valid ports and radii pass validation", prop.ForAll(
		func(port int, radius float64) bool {
			cfg := *base
			cfg.Server.Port = port
			cfg.HitTest.Radius = radius
			return ValidateConfigWithDetails(&cfg).Valid
		},
		gen.IntRange(1024, 65535),
		gen.Float64Range(0, 100),
	))

	properties.Property("out of range ports always fail", prop.ForAll(
		func(port int) bool {
			cfg := *base
			cfg.Server.Port = port
			return !ValidateConfigWithDetails(&cfg).Valid
		},
		gen.OneGenOf(gen.IntRange(-1000, -1), gen.IntRange(65536, 100000)),
	))

	properties.Property("validation is deterministic", prop.ForAll(
		func(mode string) bool {
			cfg := *base
			cfg.HitTest.Mode = mode
			a := ValidateConfigWithDetails(&cfg)
			b := ValidateConfigWithDetails(&cfg)
			return a.Valid == b.Valid && len(a.Errors) == len(b.Errors)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
