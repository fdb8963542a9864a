package render

import (
	"context"

	"github.com/goliatone/go-paramform/pkg/control"
)

// Renderer paints a control tree into bytes (HTML, terminal text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, root *control.Control, options RenderOptions) ([]byte, error)
}
