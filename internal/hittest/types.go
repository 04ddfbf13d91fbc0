// Package hittest resolves pointer locations to data points of renderable
// series. Each series kind maps to one of a closed set of strategies: point
// proximity, band envelope membership, or direct heatmap cell lookup.
package hittest

import (
	"fmt"
	"math"
	"strings"

	"github.com/conneroisu/panesync/internal/chart"
	charterrors "github.com/conneroisu/panesync/internal/errors"
)

// Mode selects how point series measure proximity.
type Mode int

const (
	// ModePoint accepts the nearest point by Euclidean pixel distance.
	ModePoint Mode = iota
	// ModeVertical accepts the nearest point by horizontal distance only.
	ModeVertical
	// ModeInterpolate tests the pointer against the line segment under it.
	ModeInterpolate
)

// Modes lists the accepted mode names.
var Modes = []string{"point", "vertical", "interpolate"}

func (m Mode) String() string {
	if int(m) >= 0 && int(m) < len(Modes) {
		return Modes[m]
	}
	return "unknown"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range Modes {
		if name == s {
			return Mode(i), nil
		}
	}
	return ModePoint, charterrors.NewValidationError(
		charterrors.ErrCodeValidationFailed,
		fmt.Sprintf("unknown hit-test mode %q", s),
	).WithSuggestions(charterrors.SuggestIDs(s, Modes)...)
}

// TieBreak orders results with equal distance.
type TieBreak int

const (
	// TieBreakRegistration prefers the series registered first.
	TieBreakRegistration TieBreak = iota
	// TieBreakZOrder prefers the series drawn on top (highest ZIndex), then
	// registration order.
	TieBreakZOrder
)

// TieBreaks lists the accepted tie-break names.
var TieBreaks = []string{"registration", "zorder"}

func (t TieBreak) String() string {
	if int(t) >= 0 && int(t) < len(TieBreaks) {
		return TieBreaks[t]
	}
	return "unknown"
}

// ParseTieBreak is the inverse of TieBreak.String.
func ParseTieBreak(s string) (TieBreak, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range TieBreaks {
		if name == s {
			return TieBreak(i), nil
		}
	}
	return TieBreakRegistration, charterrors.NewValidationError(
		charterrors.ErrCodeValidationFailed,
		fmt.Sprintf("unknown tie-break %q", s),
	).WithSuggestions(charterrors.SuggestIDs(s, TieBreaks)...)
}

// Result is a hit. For interpolated hits the coordinates are the point on
// the segment and Index is the nearer endpoint; for heatmaps Index is
// row*width+col and the coordinates are the cell center.
type Result struct {
	SeriesID chart.SeriesID  `json:"series_id" yaml:"series_id"`
	Kind     chart.SeriesKind `json:"-" yaml:"-"`
	Index    int              `json:"index" yaml:"index"`
	DataX    float64          `json:"data_x" yaml:"data_x"`
	DataY    float64          `json:"data_y" yaml:"data_y"`
	PixelX   float64          `json:"pixel_x" yaml:"pixel_x"`
	PixelY   float64          `json:"pixel_y" yaml:"pixel_y"`
	Distance float64          `json:"distance" yaml:"distance"`
	Channels []float64        `json:"channels" yaml:"channels"`

	zIndex int
	order  int
}

func (r *Result) finite() bool {
	for _, v := range [...]float64{r.DataX, r.DataY, r.PixelX, r.PixelY, r.Distance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range r.Channels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (r *Result) String() string {
	return fmt.Sprintf("%s[%d] (%g, %g) d=%.2f", r.SeriesID, r.Index, r.DataX, r.DataY, r.Distance)
}
