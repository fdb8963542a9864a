package render

import "github.com/goliatone/go-paramform/pkg/style"

// RenderOptions carry per-render data that renderers use without touching the
// control tree.
type RenderOptions struct {
	// Palette colours error borders. The zero value uses style.DefaultPalette.
	Palette style.Palette
	// Errors holds messages keyed by field name. Renderers show them next to
	// the field's control.
	Errors map[string][]string
	// FormErrors are messages not tied to a field.
	FormErrors []string
}

// PaletteOrDefault returns the configured palette or the default one.
func (o RenderOptions) PaletteOrDefault() style.Palette {
	if o.Palette == (style.Palette{}) {
		return style.DefaultPalette()
	}
	return o.Palette
}
