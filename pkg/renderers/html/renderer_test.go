package html_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/render"
	htmlrenderer "github.com/goliatone/go-paramform/pkg/renderers/html"
	"github.com/goliatone/go-paramform/pkg/schema"
)

func sampleTree() *control.Control {
	return &control.Control{
		ID:     "root",
		Widget: control.WidgetColumn,
		Children: []*control.Control{
			{ID: "header", Widget: control.WidgetHeader, Text: "Demo"},
			{
				ID:     "x-row",
				Widget: control.WidgetRow,
				Children: []*control.Control{
					{ID: "x-label", Field: "x", Widget: control.WidgetLabel, Label: "x", Tooltip: "<b>Count</b> & more", Layout: control.Layout{Width: "60px"}},
					{ID: "x", Field: "x", Widget: control.WidgetIntSlider, Value: 5, Min: 0, Max: 10, Step: 1, Layout: control.Layout{Border: "5px solid #cc0000"}},
				},
			},
			{ID: "flag", Field: "flag", Widget: control.WidgetCheckbox, Value: true},
			{ID: "pick", Field: "pick", Widget: control.WidgetDropdown, Options: []string{"a", "b"}, Value: "b"},
			{ID: "many", Field: "many", Widget: control.WidgetCrossSelect, Options: []string{"one", "two", "three"}, Value: []string{"two"}},
			{ID: "secret", Field: "secret", Widget: control.WidgetText, Value: "hidden", Hidden: true},
			{ID: "view", Field: "view", Widget: control.WidgetOutput, Value: schema.Sized{Value: "<p>hi</p><script>alert(1)</script>", Width: 200, Height: 100}},
			{ID: "img", Field: "img", Widget: control.WidgetImage, Value: []byte{0x89, 0x50}},
		},
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	renderer, err := htmlrenderer.New(htmlrenderer.WithFormClass("Demo"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if renderer.Name() != "html" || !strings.HasPrefix(renderer.ContentType(), "text/html") {
		t.Fatalf("unexpected identity %q %q", renderer.Name(), renderer.ContentType())
	}

	out, err := renderer.Render(context.Background(), sampleTree(), render.RenderOptions{
		Errors:     map[string][]string{"x": {"x out of bounds"}},
		FormErrors: []string{"form broken"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	wants := []string{
		`<form class="pf-form" id="root" data-class="Demo">`,
		`<h3 class="pf-header" id="header">Demo</h3>`,
		`<div class="pf-row" id="x-row">`,
		`for="x"`,
		`title="Count &amp; more"`,
		`type="range" id="x" name="x" min="0" max="10" step="1" value="5"`,
		`border: 5px solid #cc0000`,
		`<li>x out of bounds</li>`,
		`<li>form broken</li>`,
		`type="checkbox" id="flag" name="flag" style="" checked`,
		`<option value="b" selected>b</option>`,
		`<option value="a">a</option>`,
		`<select multiple class="pf-available"><option value="one">one</option><option value="three">three</option></select>`,
		`<option value="two" selected>two</option>`,
		`style="width: 200px; height: 100px"`,
		`<p>hi</p>`,
		`src="data:image/png;base64,iVA="`,
	}
	for _, want := range wants {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in\n%s", want, html)
		}
	}
	for _, unwanted := range []string{"<script>", "hidden", "<b>Count</b>"} {
		if strings.Contains(html, unwanted) {
			t.Errorf("unexpected %q in\n%s", unwanted, html)
		}
	}
}

func TestRenderer_CustomTemplates(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"form.tmpl":    {Data: []byte(`[{{ body|safe }}]`)},
		"control.tmpl": {Data: []byte(`{{ field }}={{ value }};`)},
	}
	renderer, err := htmlrenderer.New(htmlrenderer.WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	root := &control.Control{ID: "n", Field: "n", Widget: control.WidgetIntText, Value: 3}
	out, err := renderer.Render(context.Background(), root, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "[n=3;]" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderer_NilRoot(t *testing.T) {
	t.Parallel()

	renderer, err := htmlrenderer.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := renderer.Render(context.Background(), nil, render.RenderOptions{}); err == nil {
		t.Fatalf("expected error for nil root")
	}
}
