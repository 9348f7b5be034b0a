package vcedit

import (
	"sync"

	"golang.org/x/net/html"
)

// InputHandler receives pointer and keyboard events from a render surface.
// Controller implements it.
type InputHandler interface {
	PointerMove(ev PointerEvent)
	PointerLeave()
	PointerDown(ev PointerEvent)
	PointerUp(ev PointerEvent)
	Click(ev PointerEvent)
	DoubleClick(ev PointerEvent)
	// Blur reports that the node being text-edited lost focus, with the
	// text it holds now.
	Blur(text string)
	KeyDown(ev KeyEvent) bool
}

// Surface is the render surface: it owns geometry and visual feedback.
// The core calls it; it never owns editor state.
type Surface interface {
	// HitTest returns the deepest rendered node at p, or nil.
	HitTest(p Point) *html.Node
	// Bounds returns the rendered box of n.
	Bounds(n *html.Node) (Rect, bool)

	// Listen starts delivering input to h until the returned func is called.
	Listen(h InputHandler) (stop func())

	SetHover(n *html.Node)
	SetSelection(nodes []*html.Node, primary *html.Node)
	// ShowInsertionMarker draws the drop marker inside container before
	// ref; a nil ref means at the end.
	ShowInsertionMarker(container, ref *html.Node)
	HideInsertionMarker()
	HighlightTarget(container *html.Node)
	ClearTarget(container *html.Node)
	// Refresh re-renders the presentational state of n (drag previews,
	// text-edit markers).
	Refresh(n *html.Node)
}

// Binding ties a surface's input to a handler. It is created for each
// loaded document and torn down once.
type Binding struct {
	once sync.Once
	stop func()
}

// Bind starts delivering s's input to h.
func Bind(s Surface, h InputHandler) *Binding {
	return &Binding{stop: s.Listen(h)}
}

// Close stops delivery. It is safe to call more than once.
func (b *Binding) Close() {
	if b == nil {
		return
	}
	b.once.Do(func() {
		if b.stop != nil {
			b.stop()
		}
	})
}

// nopSurface stands in until a real surface is attached.
type nopSurface struct{}

func (nopSurface) HitTest(Point) *html.Node { return nil }
func (nopSurface) Bounds(*html.Node) (Rect, bool) { return Rect{}, false }
func (nopSurface) Listen(InputHandler) func() { return func() {} }
func (nopSurface) SetHover(*html.Node) {}
func (nopSurface) SetSelection([]*html.Node, *html.Node) {}
func (nopSurface) ShowInsertionMarker(_, _ *html.Node) {}
func (nopSurface) HideInsertionMarker() {}
func (nopSurface) HighlightTarget(*html.Node) {}
func (nopSurface) ClearTarget(*html.Node) {}
func (nopSurface) Refresh(*html.Node) {}
