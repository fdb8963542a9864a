package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goliatone/go-paramform/pkg/control"
)

// Target displays a control tree once and then takes in-place patches.
type Target interface {
	Display(ctx context.Context, root *control.Control) error
	Update(ctx context.Context, id string, patch control.Patch) error
}

// ErrNotDisplayed is returned by Update before Display.
var ErrNotDisplayed = errors.New("render: nothing displayed")

// Update is one patch received by a Recorder.
type Update struct {
	ID    string
	Patch control.Patch
}

// Recorder is an in-memory Target. It keeps the displayed tree up to date
// and logs every patch.
type Recorder struct {
	mu       sync.Mutex
	root     *control.Control
	displays int
	updates  []Update
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Display implements Target.
func (r *Recorder) Display(_ context.Context, root *control.Control) error {
	if root == nil {
		return errors.New("render: root control is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root = root
	r.displays++
	return nil
}

// Update implements Target.
func (r *Recorder) Update(_ context.Context, id string, patch control.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root == nil {
		return ErrNotDisplayed
	}
	node := r.root.Find(id)
	if node == nil {
		return fmt.Errorf("render: control %q not displayed", id)
	}
	node.Apply(patch)
	r.updates = append(r.updates, Update{ID: id, Patch: patch})
	return nil
}

// Root returns the displayed tree.
func (r *Recorder) Root() *control.Control {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root
}

// Displays counts Display calls.
func (r *Recorder) Displays() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.displays
}

// Updates returns the patches received so far.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// Writer is a Target that repaints the whole tree to w with a Renderer on
// every change. It suits static outputs such as a terminal transcript.
type Writer struct {
	mu       sync.Mutex
	renderer Renderer
	out      io.Writer
	options  func() RenderOptions
	root     *control.Control
}

// NewWriter returns a Writer. options, when set, is consulted on every paint.
func NewWriter(renderer Renderer, out io.Writer, options func() RenderOptions) *Writer {
	return &Writer{renderer: renderer, out: out, options: options}
}

// Display implements Target.
func (w *Writer) Display(ctx context.Context, root *control.Control) error {
	if root == nil {
		return errors.New("render: root control is nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.root = root
	return w.paint(ctx)
}

// Update implements Target.
func (w *Writer) Update(ctx context.Context, id string, patch control.Patch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.root == nil {
		return ErrNotDisplayed
	}
	if node := w.root.Find(id); node != nil {
		node.Apply(patch)
	}
	return w.paint(ctx)
}

func (w *Writer) paint(ctx context.Context) error {
	if w.renderer == nil || w.out == nil {
		return errors.New("render: writer needs a renderer and an output")
	}
	var options RenderOptions
	if w.options != nil {
		options = w.options()
	}
	out, err := w.renderer.Render(ctx, w.root, options)
	if err != nil {
		return fmt.Errorf("render: %s: %w", w.renderer.Name(), err)
	}
	_, err = w.out.Write(out)
	return err
}
