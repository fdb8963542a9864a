// Package control describes the renderable controls produced for a schema. A
// Control tree is handed to a render target once; later changes travel as
// Patch values addressed by control ID.
package control

// Widget names the presentation of a control.
type Widget string

// Built-in widgets.
const (
	WidgetCheckbox         Widget = "checkbox"
	WidgetText             Widget = "text"
	WidgetIntText          Widget = "int-text"
	WidgetFloatText        Widget = "float-text"
	WidgetIntSlider        Widget = "int-slider"
	WidgetFloatSlider      Widget = "float-slider"
	WidgetIntRangeSlider   Widget = "int-range-slider"
	WidgetFloatRangeSlider Widget = "float-range-slider"
	WidgetColorPicker      Widget = "color-picker"
	WidgetDatePicker       Widget = "date-picker"
	WidgetDropdown         Widget = "dropdown"
	WidgetSelectMultiple   Widget = "select-multiple"
	WidgetCrossSelect      Widget = "cross-select"
	WidgetButton           Widget = "button"
	WidgetOutput           Widget = "output"
	WidgetImage            Widget = "image"
	WidgetHTML             Widget = "html"
	WidgetLabel            Widget = "label"
	WidgetHeader           Widget = "header"

	// Containers.
	WidgetRow    Widget = "row"
	WidgetColumn Widget = "column"
	WidgetBox    Widget = "box"
)

// Layout holds the CSS-like sizing hints a target may honour.
type Layout struct {
	Width     string
	MinWidth  string
	MinHeight string
	Border    string
}

// Control is one node of the rendered tree.
type Control struct {
	ID         string
	Field      string
	Widget     Widget
	Label      string
	Tooltip    string
	Value      any
	Text       string
	Min        any
	Max        any
	Step       any
	Options    []string
	Disabled   bool
	Editable   bool
	Hidden     bool
	Layout     Layout
	Children   []*Control

	// Continuous sliders report every intermediate value while dragged.
	Continuous bool
}

// Walk visits c and its descendants depth first. Returning false stops the
// walk.
func (c *Control) Walk(fn func(*Control) bool) bool {
	if c == nil {
		return true
	}
	if !fn(c) {
		return false
	}
	for _, child := range c.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first control with id.
func (c *Control) Find(id string) *Control {
	var found *Control
	c.Walk(func(node *Control) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Apply updates c in place with the set fields of p.
func (c *Control) Apply(p Patch) {
	if c == nil {
		return
	}
	if p.Value != nil {
		c.Value = p.Value.Value
	}
	if p.Text != nil {
		c.Text = *p.Text
	}
	if p.Options != nil {
		c.Options = append([]string(nil), (*p.Options)...)
	}
	if p.Border != nil {
		c.Layout.Border = *p.Border
	}
	if p.Disabled != nil {
		c.Disabled = *p.Disabled
	}
	if p.Editable != nil {
		c.Editable = *p.Editable
	}
	if p.Hidden != nil {
		c.Hidden = *p.Hidden
	}
	if p.Label != nil {
		c.Label = *p.Label
	}
}

// Boxed carries a value in a Patch so that nil can be distinguished from
// "unchanged".
type Boxed struct {
	Value any
}

// Patch is an in-place update to one control. Nil fields are unchanged.
type Patch struct {
	Value    *Boxed
	Text     *string
	Options  *[]string
	Border   *string
	Disabled *bool
	Editable *bool
	Hidden   *bool
	Label    *string
}

// SetValue returns a patch replacing the control value.
func SetValue(v any) Patch {
	return Patch{Value: &Boxed{Value: v}}
}

// SetText returns a patch replacing the control text.
func SetText(text string) Patch {
	return Patch{Text: &text}
}

// SetOptions returns a patch replacing the option labels.
func SetOptions(labels []string) Patch {
	copied := append([]string(nil), labels...)
	return Patch{Options: &copied}
}

// SetBorder returns a patch replacing the border style.
func SetBorder(border string) Patch {
	return Patch{Border: &border}
}

// SetEditable returns a patch toggling the edit affordance.
func SetEditable(editable bool) Patch {
	return Patch{Editable: &editable}
}

// SetDisabled returns a patch toggling interactivity.
func SetDisabled(disabled bool) Patch {
	return Patch{Disabled: &disabled}
}

// SetHidden returns a patch toggling visibility.
func SetHidden(hidden bool) Patch {
	return Patch{Hidden: &hidden}
}

// Merge overlays the set fields of other onto p.
func (p Patch) Merge(other Patch) Patch {
	if other.Value != nil {
		p.Value = other.Value
	}
	if other.Text != nil {
		p.Text = other.Text
	}
	if other.Options != nil {
		p.Options = other.Options
	}
	if other.Border != nil {
		p.Border = other.Border
	}
	if other.Disabled != nil {
		p.Disabled = other.Disabled
	}
	if other.Editable != nil {
		p.Editable = other.Editable
	}
	if other.Hidden != nil {
		p.Hidden = other.Hidden
	}
	if other.Label != nil {
		p.Label = other.Label
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}
