package style

import (
	"errors"
	"testing"

	theme "github.com/goliatone/go-theme"
)

func TestPalette_Border(t *testing.T) {
	t.Parallel()

	palette := DefaultPalette()
	tests := []struct {
		tier Tier
		want string
	}{
		{TierNone, "0px"},
		{TierSoft, "5px solid #FFCC00"},
		{TierStrong, "5px solid #cc0000"},
	}
	for _, tt := range tests {
		if got := palette.Border(tt.tier); got != tt.want {
			t.Fatalf("%s border: want %q, got %q", tt.tier, tt.want, got)
		}
	}
}

func TestFromSelection_VariantOverridesBase(t *testing.T) {
	t.Parallel()

	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			TokenErrorSoft:   "#eeaa00",
			TokenErrorStrong: "#aa0000",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					TokenErrorStrong: "#ff4444",
					TokenErrorWidth:  "3px",
				},
			},
		},
	}

	palette := FromSelection(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: manifest})
	if palette.Soft != "#eeaa00" {
		t.Fatalf("expected base soft token, got %q", palette.Soft)
	}
	if got := palette.Border(TierStrong); got != "3px solid #ff4444" {
		t.Fatalf("expected variant strong border, got %q", got)
	}
}

func TestResolve_UsesSelector(t *testing.T) {
	t.Parallel()

	selector := &stubSelector{selection: &theme.Selection{
		Theme:    "acme",
		Manifest: &theme.Manifest{Name: "acme", Tokens: map[string]string{TokenErrorSoft: "#123456"}},
	}}
	palette, err := Resolve(selector, "acme", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if palette.Soft != "#123456" {
		t.Fatalf("unexpected soft colour %q", palette.Soft)
	}
	if selector.name != "acme" {
		t.Fatalf("selector not consulted")
	}

	failing := &stubSelector{err: errors.New("boom")}
	if _, err := Resolve(failing, "missing", ""); err == nil {
		t.Fatalf("expected selector error to propagate")
	}
}

type stubSelector struct {
	selection *theme.Selection
	err       error
	name      string
}

func (s *stubSelector) Select(name, _ string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.name = name
	return s.selection, s.err
}
