package html

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
	viewOnce     sync.Once
	viewPolicy   *bluemonday.Policy
)

// textPolicy strips all markup; used for tooltips.
func textPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// markupPolicy keeps user-generated markup plus inline SVG, which view
// renderers commonly emit.
func markupPolicy() *bluemonday.Policy {
	viewOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("svg", "g", "path", "circle", "rect", "line", "polyline", "polygon", "text")
		policy.AllowAttrs("xmlns", "viewBox", "width", "height", "fill", "stroke", "stroke-width").OnElements("svg")
		for _, el := range []string{"path", "circle", "rect", "line", "polyline", "polygon", "text"} {
			policy.AllowAttrs(
				"d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2",
				"points", "width", "height", "fill", "stroke", "stroke-width",
			).OnElements(el)
		}
		policy.AllowStyling()
		viewPolicy = policy
	})
	return viewPolicy
}

func sanitizeText(raw string) string {
	return strings.TrimSpace(textPolicy().Sanitize(strings.TrimSpace(raw)))
}
