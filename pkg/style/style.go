// Package style maps control error states onto border styles. Colours come
// from a go-theme selection when one is configured.
package style

import (
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Tier classifies how loudly an error state is shown.
type Tier int

const (
	// TierNone is the committed, error-free state.
	TierNone Tier = iota
	// TierSoft marks input that could not be parsed or instantiated.
	TierSoft
	// TierStrong marks a value the schema rejected.
	TierStrong
)

func (t Tier) String() string {
	switch t {
	case TierSoft:
		return "soft"
	case TierStrong:
		return "strong"
	default:
		return "none"
	}
}

// Theme token names read by FromSelection.
const (
	TokenErrorSoft   = "error-soft"
	TokenErrorStrong = "error-strong"
	TokenErrorWidth  = "error-width"
)

// Palette holds the border colours for each tier.
type Palette struct {
	Soft   string
	Strong string
	Width  string
}

// DefaultPalette returns the built-in amber and red borders.
func DefaultPalette() Palette {
	return Palette{
		Soft:   "#FFCC00",
		Strong: "#cc0000",
		Width:  "5px",
	}
}

// Border returns the border declaration for tier.
func (p Palette) Border(t Tier) string {
	width := p.Width
	if width == "" {
		width = "5px"
	}
	switch t {
	case TierSoft:
		return fmt.Sprintf("%s solid %s", width, p.Soft)
	case TierStrong:
		return fmt.Sprintf("%s solid %s", width, p.Strong)
	default:
		return "0px"
	}
}

// FromSelection overlays the selection's tokens, base then variant, onto the
// default palette.
func FromSelection(selection *theme.Selection) Palette {
	palette := DefaultPalette()
	if selection == nil || selection.Manifest == nil {
		return palette
	}
	tokens := make(map[string]string, len(selection.Manifest.Tokens))
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}
	if v := strings.TrimSpace(tokens[TokenErrorSoft]); v != "" {
		palette.Soft = v
	}
	if v := strings.TrimSpace(tokens[TokenErrorStrong]); v != "" {
		palette.Strong = v
	}
	if v := strings.TrimSpace(tokens[TokenErrorWidth]); v != "" {
		palette.Width = v
	}
	return palette
}

// Resolve selects name/variant through selector and builds a palette from it.
func Resolve(selector theme.ThemeSelector, name, variant string) (Palette, error) {
	if selector == nil {
		return Palette{}, errors.New("style: theme selector is nil")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return Palette{}, fmt.Errorf("style: select theme %q: %w", name, err)
	}
	return FromSelection(selection), nil
}
