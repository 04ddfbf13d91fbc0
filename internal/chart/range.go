package chart

import (
	"fmt"
	"math"
)

// Range is a closed interval [Min, Max] in an axis' data domain.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// NewRange returns [min, max], swapping the bounds if they arrive reversed.
func NewRange(min, max float64) Range {
	if min > max {
		min, max = max, min
	}
	return Range{Min: min, Max: max}
}

// IsValid reports whether both bounds are finite and ordered.
func (r Range) IsValid() bool {
	return isFinite(r.Min) && isFinite(r.Max) && r.Min <= r.Max
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Equal compares both bounds exactly.
func (r Range) Equal(o Range) bool {
	return r.Min == o.Min && r.Max == o.Max
}

// Contains reports whether v lies inside the closed interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Union returns the smallest range covering both r and o.
func (r Range) Union(o Range) Range {
	return Range{Min: math.Min(r.Min, o.Min), Max: math.Max(r.Max, o.Max)}
}

// Grow pads the range by fractions of its span on each side. A zero-width
// range is widened by half a unit each way first so it stays usable.
func (r Range) Grow(g GrowBy) Range {
	if r.Span() == 0 {
		r = Range{Min: r.Min - 0.5, Max: r.Max + 0.5}
	}
	span := r.Span()
	return Range{Min: r.Min - span*g.Lo, Max: r.Max + span*g.Hi}
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// GrowBy holds padding fractions applied below and above a data range when
// an axis zooms to extents.
type GrowBy struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// DomainType is the kind of value an axis maps. Axes of different domains
// cannot share a range synchronization group.
type DomainType int

const (
	DomainNumeric DomainType = iota
	DomainDateTime
	DomainCategory
)

func (d DomainType) String() string {
	switch d {
	case DomainNumeric:
		return "numeric"
	case DomainDateTime:
		return "datetime"
	case DomainCategory:
		return "category"
	default:
		return "unknown"
	}
}

// ParseDomainType is the inverse of DomainType.String.
func ParseDomainType(s string) (DomainType, error) {
	switch s {
	case "numeric", "":
		return DomainNumeric, nil
	case "datetime":
		return DomainDateTime, nil
	case "category":
		return DomainCategory, nil
	default:
		return DomainNumeric, fmt.Errorf("unknown domain type %q", s)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
