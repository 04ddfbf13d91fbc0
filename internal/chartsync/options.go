// Package chartsync keeps sibling chart panes aligned: visible ranges are
// mirrored across axes in a range group, and label gutters are equalized
// across panes in a size group.
package chartsync

import (
	"github.com/conneroisu/panesync/internal/chart"
	"github.com/conneroisu/panesync/internal/logging"
)

// AxisSource resolves axis handles. *chart.Arena implements it.
type AxisSource interface {
	Axis(id chart.AxisID) (*chart.Axis, bool)
	AxisIDs() []string
}

// PaneSource resolves pane handles. *chart.Arena implements it.
type PaneSource interface {
	Pane(id chart.PaneID) (*chart.Pane, bool)
	PaneIDs() []string
}

type options struct {
	logger logging.Logger
	name   string
}

// Option configures a synchronizer.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName labels the group in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithComponent(component)
	if o.name != "" {
		o.logger = o.logger.With("group", o.name)
	}
	return o
}
