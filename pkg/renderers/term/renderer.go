// Package term paints control trees as terminal text with lipgloss and drives
// cross-select controls interactively with bubbletea.
package term

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-paramform/internal/literal"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/render"
	"github.com/goliatone/go-paramform/pkg/schema"
)

// pixelsPerCell converts CSS label widths into terminal cells.
const pixelsPerCell = 7.5

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	buttonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Padding(0, 1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Option configures the renderer.
type Option func(*Renderer)

// WithWidth wraps output at width cells. Zero disables wrapping.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width >= 0 {
			r.width = width
		}
	}
}

// Renderer paints control trees as plain terminal text.
type Renderer struct {
	width  int
	strict *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a terminal renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{strict: bluemonday.StrictPolicy()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return "term"
}

func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render implements render.Renderer.
func (r *Renderer) Render(_ context.Context, root *control.Control, options render.RenderOptions) ([]byte, error) {
	if root == nil {
		return nil, errors.New("term renderer: root control is nil")
	}
	palette := options.PaletteOrDefault()
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Strong))

	var sections []string
	for _, message := range options.FormErrors {
		sections = append(sections, errorStyle.Render("! "+message))
	}
	sections = append(sections, r.paint(root, options, errorStyle))
	out := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if r.width > 0 {
		out = lipgloss.NewStyle().Width(r.width).Render(out)
	}
	return []byte(out + "\n"), nil
}

func (r *Renderer) paint(node *control.Control, options render.RenderOptions, errorStyle lipgloss.Style) string {
	if node == nil || node.Hidden {
		return ""
	}
	var out string
	switch node.Widget {
	case control.WidgetRow, control.WidgetColumn, control.WidgetBox:
		parts := make([]string, 0, len(node.Children))
		for _, child := range node.Children {
			if painted := r.paint(child, options, errorStyle); painted != "" {
				parts = append(parts, painted)
			}
		}
		if node.Widget == control.WidgetRow {
			out = lipgloss.JoinHorizontal(lipgloss.Top, spaced(parts)...)
		} else {
			out = lipgloss.JoinVertical(lipgloss.Left, parts...)
		}
	default:
		out = r.leaf(node)
		if node.Field != "" && node.Widget != control.WidgetLabel {
			lines := []string{out}
			for _, message := range options.Errors[node.Field] {
				lines = append(lines, errorStyle.Render("! "+message))
			}
			out = lipgloss.JoinVertical(lipgloss.Left, lines...)
		}
	}
	if colour, ok := borderColour(node.Layout.Border); ok {
		out = boxStyle.BorderForeground(lipgloss.Color(colour)).Render(out)
	} else if node.Layout.Border != "" && node.Layout.Border != "0px" {
		out = boxStyle.Render(out)
	}
	return out
}

func (r *Renderer) leaf(node *control.Control) string {
	switch node.Widget {
	case control.WidgetHeader:
		return titleStyle.Render(node.Text)
	case control.WidgetLabel:
		style := labelStyle
		if cells := cellsFor(node.Layout.Width); cells > 0 {
			style = style.Width(cells)
		}
		return style.Render(node.Label)
	case control.WidgetCheckbox:
		if checked, _ := node.Value.(bool); checked {
			return "[x]"
		}
		return "[ ]"
	case control.WidgetIntSlider, control.WidgetFloatSlider,
		control.WidgetIntRangeSlider, control.WidgetFloatRangeSlider:
		return fmt.Sprintf("%s %s", textOf(node), mutedStyle.Render(fmt.Sprintf("[%s..%s]", scalar(node.Min), scalar(node.Max))))
	case control.WidgetDropdown:
		text := "< " + scalar(node.Value) + " >"
		if len(node.Options) == 0 {
			text = mutedStyle.Render("< none >")
		}
		if node.Editable {
			text += " " + buttonStyle.Render("...")
		}
		return text
	case control.WidgetSelectMultiple:
		chosen := make(map[string]bool)
		for _, label := range stringsOf(node.Value) {
			chosen[label] = true
		}
		lines := make([]string, 0, len(node.Options))
		for _, label := range node.Options {
			mark := "[ ]"
			if chosen[label] {
				mark = "[x]"
			}
			lines = append(lines, mark+" "+label)
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	case control.WidgetCrossSelect:
		chosen := stringsOf(node.Value)
		taken := make(map[string]bool, len(chosen))
		for _, label := range chosen {
			taken[label] = true
		}
		var available []string
		for _, label := range node.Options {
			if !taken[label] {
				available = append(available, label)
			}
		}
		return lipgloss.JoinHorizontal(lipgloss.Top,
			column("available", available),
			"  ",
			column("chosen", chosen),
		)
	case control.WidgetButton:
		return buttonStyle.Render(node.Text)
	case control.WidgetHTML, control.WidgetOutput:
		value, _, _ := unsize(node.Value)
		text := node.Text
		if text == "" || node.Widget == control.WidgetOutput {
			text = scalar(value)
		}
		return strings.TrimSpace(r.strict.Sanitize(text))
	case control.WidgetImage:
		_, width, height := unsize(node.Value)
		if node.Value == nil {
			return mutedStyle.Render("[image]")
		}
		if width > 0 {
			return mutedStyle.Render(fmt.Sprintf("[image %dx%d]", width, height))
		}
		return mutedStyle.Render("[image]")
	}
	return textOf(node)
}

func column(title string, labels []string) string {
	lines := []string{mutedStyle.Render(title)}
	if len(labels) == 0 {
		lines = append(lines, mutedStyle.Render("-"))
	}
	lines = append(lines, labels...)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func spaced(parts []string) []string {
	if len(parts) < 2 {
		return parts
	}
	out := make([]string, 0, len(parts)*2-1)
	for i, part := range parts {
		if i > 0 {
			out = append(out, " ")
		}
		out = append(out, part)
	}
	return out
}

func textOf(node *control.Control) string {
	if node.Text != "" {
		return node.Text
	}
	return scalar(node.Value)
}

// borderColour extracts the colour of a "<width> solid <colour>" border.
func borderColour(border string) (string, bool) {
	fields := strings.Fields(border)
	if len(fields) != 3 || fields[1] != "solid" {
		return "", false
	}
	return fields[2], true
}

func cellsFor(width string) int {
	px, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(width), "px"), 64)
	if err != nil || px <= 0 {
		return 0
	}
	return int(px / pixelsPerCell)
}

func scalar(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case time.Time:
		return typed.Format(time.DateOnly)
	case fmt.Stringer:
		return typed.String()
	}
	return literal.Format(value)
}

func stringsOf(value any) []string {
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, scalar(item))
		}
		return out
	}
	return nil
}

func unsize(value any) (any, int, int) {
	if sized, ok := value.(schema.Sized); ok {
		return sized.Value, sized.Width, sized.Height
	}
	return value, 0, 0
}
