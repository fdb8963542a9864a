package form

import (
	"github.com/goliatone/go-paramform/pkg/binding"
	"github.com/goliatone/go-paramform/pkg/schema"
)

// DefaultMinLabelPixels is the narrowest estimated label column.
const DefaultMinLabelPixels = 60

// Layout arranges the field rows.
type Layout string

const (
	LayoutColumn Layout = "column"
	LayoutRow    Layout = "row"
)

// ViewPosition places the view outputs relative to the field rows.
type ViewPosition string

const (
	ViewBelow ViewPosition = "below"
	ViewRight ViewPosition = "right"
	ViewLeft  ViewPosition = "left"
	ViewAbove ViewPosition = "above"
)

// LabelWidthFunc computes the label column width from the displayed labels.
type LabelWidthFunc func(labels []string) string

// Option customises Build.
type Option func(*config)

type config struct {
	defaultPrecedence float64
	displayThreshold  float64
	showLabels        bool
	tooltips          bool
	labelWidth        LabelWidthFunc
	minLabelPixels    int
	layout            Layout
	viewPosition      ViewPosition
	runLabel          string
	closeButton       bool
	idPrefix          string
	bindingOptions    []binding.Option
}

func defaultConfig() config {
	return config{
		defaultPrecedence: schema.DefaultPrecedence,
		showLabels:        true,
		tooltips:          true,
		minLabelPixels:    DefaultMinLabelPixels,
		layout:            LayoutColumn,
		viewPosition:      ViewBelow,
	}
}

// WithDefaultPrecedence sets the precedence of fields that declare none.
func WithDefaultPrecedence(p float64) Option {
	return func(c *config) {
		c.defaultPrecedence = p
	}
}

// WithDisplayThreshold hides fields whose declared precedence is below t.
func WithDisplayThreshold(t float64) Option {
	return func(c *config) {
		c.displayThreshold = t
	}
}

// WithLabels toggles the label column.
func WithLabels(show bool) Option {
	return func(c *config) {
		c.showLabels = show
	}
}

// WithTooltips toggles field docs as control tooltips.
func WithTooltips(on bool) Option {
	return func(c *config) {
		c.tooltips = on
	}
}

// WithLabelWidth fixes the label column to a CSS width.
func WithLabelWidth(width string) Option {
	return func(c *config) {
		if width == "" {
			c.labelWidth = nil
			return
		}
		c.labelWidth = func([]string) string { return width }
	}
}

// WithLabelWidthFunc computes the label column width.
func WithLabelWidthFunc(fn LabelWidthFunc) Option {
	return func(c *config) {
		c.labelWidth = fn
	}
}

// WithMinLabelPixels sets the floor of the estimated label width.
func WithMinLabelPixels(px int) Option {
	return func(c *config) {
		if px > 0 {
			c.minLabelPixels = px
		}
	}
}

// WithLayout arranges field rows as a column or a row.
func WithLayout(layout Layout) Option {
	return func(c *config) {
		if layout != "" {
			c.layout = layout
		}
	}
}

// WithViewPosition places the view outputs.
func WithViewPosition(position ViewPosition) Option {
	return func(c *config) {
		if position != "" {
			c.viewPosition = position
		}
	}
}

// WithRunButton appends a run button with label. An empty label omits it.
func WithRunButton(label string) Option {
	return func(c *config) {
		c.runLabel = label
	}
}

// WithCloseButton appends a close button and borders the form.
func WithCloseButton() Option {
	return func(c *config) {
		c.closeButton = true
	}
}

// WithIDPrefix namespaces control IDs.
func WithIDPrefix(prefix string) Option {
	return func(c *config) {
		c.idPrefix = prefix
	}
}

// WithBindingOptions passes options to every field binding.
func WithBindingOptions(options ...binding.Option) Option {
	return func(c *config) {
		c.bindingOptions = append(c.bindingOptions, options...)
	}
}
