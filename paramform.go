// Package paramform binds parameter schemas to interactive forms. The root
// package re-exports the common entry points; the packages under pkg/ hold
// the pieces.
package paramform

import (
	"context"
	"fmt"

	"github.com/goliatone/go-paramform/pkg/render"
	"github.com/goliatone/go-paramform/pkg/renderers/html"
	"github.com/goliatone/go-paramform/pkg/renderers/term"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/session"
)

// Schema is a declared set of typed fields.
type Schema = schema.Schema

// ParameterSpec declares one field.
type ParameterSpec = schema.ParameterSpec

// Session binds one schema to one form.
type Session = session.Session

// RenderOptions carry per-render palette and error messages.
type RenderOptions = render.RenderOptions

// NewSession exposes the session constructor from the top-level module.
func NewSession(s *schema.Schema, options ...session.Option) (*session.Session, error) {
	return session.New(s, options...)
}

// DefaultRenderers returns a registry holding the html and term renderers.
func DefaultRenderers() (*render.Registry, error) {
	htmlRenderer, err := html.New()
	if err != nil {
		return nil, fmt.Errorf("paramform: html renderer: %w", err)
	}
	return render.NewRegistry(htmlRenderer, term.New())
}

// Render builds a session for s and paints it with the named renderer. It is
// the simplest entry point for callers that only want static output.
func Render(ctx context.Context, s *schema.Schema, rendererName string, options ...session.Option) ([]byte, error) {
	registry, err := DefaultRenderers()
	if err != nil {
		return nil, err
	}
	options = append([]session.Option{session.WithRenderers(registry)}, options...)
	sess, err := session.New(s, options...)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)
	return sess.Render(ctx, rendererName)
}

// RenderHTML renders s as an HTML fragment.
func RenderHTML(ctx context.Context, s *schema.Schema, options ...session.Option) ([]byte, error) {
	return Render(ctx, s, "html", options...)
}
