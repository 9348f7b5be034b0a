package vcedit

import (
	"testing"

	"golang.org/x/net/html"
)

// fakeSurface lays nodes out in fixed boxes and records the feedback it
// is asked to show.
type fakeSurface struct {
	boxes map[*html.Node]Rect
	h     InputHandler

	listens  int
	stops    int
	hover    *html.Node
	selected []*html.Node
	primary  *html.Node

	markerIn  *html.Node
	markerRef *html.Node
	marker    bool
	target    *html.Node
	refreshed int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{boxes: make(map[*html.Node]Rect)}
}

func (s *fakeSurface) place(n *html.Node, r Rect) {
	s.boxes[n] = r
}

// HitTest returns the deepest placed node containing p.
func (s *fakeSurface) HitTest(p Point) *html.Node {
	var best *html.Node
	bestDepth := -1
	for n, r := range s.boxes {
		if !r.Contains(p) {
			continue
		}
		if d := depth(n); d > bestDepth {
			best, bestDepth = n, d
		}
	}
	return best
}

func depth(n *html.Node) int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

func (s *fakeSurface) Bounds(n *html.Node) (Rect, bool) {
	r, ok := s.boxes[n]
	return r, ok
}

func (s *fakeSurface) Listen(h InputHandler) func() {
	s.h = h
	s.listens++
	return func() {
		s.stops++
		if s.h == h {
			s.h = nil
		}
	}
}

func (s *fakeSurface) SetHover(n *html.Node) { s.hover = n }

func (s *fakeSurface) SetSelection(nodes []*html.Node, primary *html.Node) {
	s.selected, s.primary = nodes, primary
}

func (s *fakeSurface) ShowInsertionMarker(container, ref *html.Node) {
	s.markerIn, s.markerRef, s.marker = container, ref, true
}

func (s *fakeSurface) HideInsertionMarker()          { s.marker = false }
func (s *fakeSurface) HighlightTarget(n *html.Node) { s.target = n }

func (s *fakeSurface) ClearTarget(n *html.Node) {
	if s.target == n {
		s.target = nil
	}
}

func (s *fakeSurface) Refresh(*html.Node) { s.refreshed++ }

func TestBindingCloseOnce(t *testing.T) {
	s := newFakeSurface()
	ed, err := New(WithSurface(s))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ed.Load(`<p>a</p>`); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := ed.Load(`<p>b</p>`); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.listens != 2 || s.stops != 1 {
		t.Errorf("after two loads: listens=%d stops=%d, want 2 and 1", s.listens, s.stops)
	}
	if s.h != ed.Controller() {
		t.Errorf("surface is not delivering to the controller")
	}

	ed.Close()
	ed.Close()
	if s.stops != 2 {
		t.Errorf("Close should stop the binding exactly once, stops=%d", s.stops)
	}
	if s.h != nil {
		t.Errorf("handler still attached after Close")
	}
}
