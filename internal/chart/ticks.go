package chart

import (
	"math"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FontMetrics approximates label geometry without a text shaper.
type FontMetrics struct {
	CharWidth  float64 `json:"char_width" yaml:"char_width"`
	LineHeight float64 `json:"line_height" yaml:"line_height"`
	TickLength float64 `json:"tick_length" yaml:"tick_length"`
	Padding    float64 `json:"padding" yaml:"padding"`
}

// DefaultFontMetrics matches a 10pt proportional font.
func DefaultFontMetrics() FontMetrics {
	return FontMetrics{CharWidth: 6, LineHeight: 12, TickLength: 4, Padding: 4}
}

const (
	defaultNumericFormat = "%.2f"
	defaultTimeLayout    = "2006-01-02"
)

var labelPrinter = message.NewPrinter(language.English)

// FormatLabel renders a tick value. Numeric and category values use a
// printf-style format with locale digit grouping; date-time values (Unix
// seconds) use format as a time layout.
func FormatLabel(domain DomainType, format string, v float64) string {
	if domain == DomainDateTime {
		layout := format
		if layout == "" {
			layout = defaultTimeLayout
		}
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(layout)
	}
	if format == "" {
		format = defaultNumericFormat
	}
	return labelPrinter.Sprintf(format, v)
}

func textWidth(s string) int {
	return utf8.RuneCountInString(s)
}

// NiceTicks picks up to about n tick positions covering r using 1, 2, 2.5,
// 5 and 10 steps scaled by a power of ten.
func NiceTicks(r Range, n int) []float64 {
	if n < 2 || !r.IsValid() {
		return nil
	}
	min, max := r.Min, r.Max
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	if mag == 0 || math.IsInf(mag, 0) || math.IsNaN(mag) {
		return []float64{min, max}
	}

	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		if score := math.Abs(count - float64(n)); score < bestScore {
			bestScore = score
			bestStep = step
		}
	}

	start := math.Ceil(min/bestStep) * bestStep
	ticks := make([]float64, 0, n+2)
	for v := start; v <= max+bestStep*1e-9; v += bestStep {
		ticks = append(ticks, v)
		if len(ticks) > n+2 {
			break
		}
	}
	return ticks
}
