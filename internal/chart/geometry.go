package chart

import "fmt"

// Point is a pixel-space location. Y grows downward, as on screen.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect is a pixel-space rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (r Rect) Left() float64 { return r.X }
func (r Rect) Right() float64 { return r.X + r.Width }
func (r Rect) Top() float64 { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// Inset shrinks r by the gutters. Sizes never go negative.
func (r Rect) Inset(g Gutters) Rect {
	out := Rect{
		X:      r.X + g.Left,
		Y:      r.Y + g.Top,
		Width:  r.Width - g.Left - g.Right,
		Height: r.Height - g.Top - g.Bottom,
	}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// Side names one edge of a pane's plot area.
type Side int

const (
	SideLeft Side = iota
	SideRight
	SideTop
	SideBottom
)

// AllSides lists the sides in a fixed order.
var AllSides = []Side{SideLeft, SideRight, SideTop, SideBottom}

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Gutters are the pixel margins reserved for axis labels on each side.
type Gutters struct {
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// Get returns the gutter on side s.
func (g Gutters) Get(s Side) float64 {
	switch s {
	case SideLeft:
		return g.Left
	case SideRight:
		return g.Right
	case SideTop:
		return g.Top
	case SideBottom:
		return g.Bottom
	}
	return 0
}

// With returns a copy of g with side s set to v.
func (g Gutters) With(s Side, v float64) Gutters {
	switch s {
	case SideLeft:
		g.Left = v
	case SideRight:
		g.Right = v
	case SideTop:
		g.Top = v
	case SideBottom:
		g.Bottom = v
	}
	return g
}
