package paramform

import (
	"io/fs"

	"github.com/goliatone/go-paramform/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in html renderer templates so callers
// can copy or extend them and pass them back through html.WithTemplatesFS.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
