package vcedit

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/net/html"
)

// DragMode is how a drag session moves its nodes.
type DragMode uint8

const (
	// DragReparent moves nodes to a new parent and position in the tree.
	DragReparent DragMode = iota
	// DragFreeMove shifts the positional offset of nodes in place.
	DragFreeMove
)

// String returns a string representation of the mode.
func (m DragMode) String() string {
	if m == DragFreeMove {
		return "free-move"
	}
	return "reparent"
}

// dragOrigin remembers a node's style before the drag previewed offsets.
type dragOrigin struct {
	style  string
	offset Point
}

// DragSession is the transient state of one move gesture. It is created
// once the pointer crosses the drag threshold and discarded on release or
// cancellation. Nothing in the tree changes structurally until Commit.
type DragSession struct {
	ID string

	ed     *Editor
	nodes  []*html.Node // the selection at drag start, in document order
	moved  []*html.Node // nodes minus those inside another dragged node
	origin Point
	mode   DragMode

	origins    map[*html.Node]dragOrigin
	previewing bool

	// Reparent feedback: the candidate container and the child the nodes
	// will be inserted before (nil for the end).
	target *html.Node
	ref    *html.Node
}

func newDragSession(ed *Editor, nodes []*html.Node, origin Point) *DragSession {
	ordered := documentOrder(ed.doc.Root(), nodes)
	s := &DragSession{
		ID:      uuid.NewString(),
		ed:      ed,
		nodes:   ordered,
		origin:  origin,
		origins: make(map[*html.Node]dragOrigin, len(ordered)),
	}
	s.moved = lo.Filter(ordered, func(n *html.Node, _ int) bool {
		return !lo.ContainsBy(ordered, func(other *html.Node) bool {
			return other != n && isDescendantOf(n, other)
		})
	})
	for _, n := range ordered {
		s.origins[n] = dragOrigin{style: getAttr(n, "style"), offset: ed.doc.Style(n).Offset}
	}
	return s
}

// Nodes returns the dragged nodes in document order.
func (s *DragSession) Nodes() []*html.Node { return append([]*html.Node(nil), s.nodes...) }

// Mode returns the mode resolved by the latest pointer event.
func (s *DragSession) Mode() DragMode { return s.mode }

// Target returns the candidate container and insertion reference.
func (s *DragSession) Target() (container, ref *html.Node) { return s.target, s.ref }

// Update resolves the mode from the held modifiers and refreshes the
// preview for the pointer position.
func (s *DragSession) Update(ev PointerEvent) {
	mode := DragReparent
	if ev.Modifiers.Has(s.ed.cfg.freeMove()) {
		mode = DragFreeMove
	}
	if mode != s.mode {
		if s.mode == DragFreeMove {
			s.revertPreview()
		} else {
			s.clearTarget()
		}
		s.mode = mode
	}

	if s.mode == DragFreeMove {
		s.previewOffsets(ev.Pos.Sub(s.origin))
		return
	}
	s.track(ev.Pos)
}

// previewOffsets shows the offsets as a provisional style, so serialized
// output keeps the committed state until the drop.
func (s *DragSession) previewOffsets(delta Point) {
	for _, n := range s.nodes {
		o := s.origins[n]
		s.ed.doc.SetProvisional(n, "style", offsetStyle(o.style, o.offset.Add(delta)))
		s.ed.surface.Refresh(n)
	}
	s.previewing = true
}

func (s *DragSession) revertPreview() {
	if !s.previewing {
		return
	}
	for _, n := range s.nodes {
		s.ed.doc.RestoreProvisional(n, "style")
		s.ed.surface.Refresh(n)
	}
	s.previewing = false
}

// track hit-tests p, picks the candidate container and the insertion point
// and moves the visual feedback.
func (s *DragSession) track(p Point) {
	target := s.candidate(s.ed.surface.HitTest(p))
	if target != s.target {
		if s.target != nil {
			s.ed.surface.ClearTarget(s.target)
		}
		if target != nil {
			s.ed.surface.HighlightTarget(target)
		}
		s.target = target
	}
	if target == nil {
		s.ref = nil
		s.ed.surface.HideInsertionMarker()
		return
	}
	s.ref = s.insertionPoint(target, p.Y)
	s.ed.surface.ShowInsertionMarker(target, s.ref)
}

// candidate walks up from the hit node to the nearest container that is
// neither dragged nor inside a dragged node.
func (s *DragSession) candidate(hit *html.Node) *html.Node {
	for n := hit; n != nil; n = n.Parent {
		if s.ed.doc.Container(n) && !s.inside(n) {
			return n
		}
	}
	return nil
}

func (s *DragSession) inside(n *html.Node) bool {
	return lo.ContainsBy(s.nodes, func(d *html.Node) bool { return isDescendantOf(n, d) })
}

// insertionPoint returns the first visible child of container, skipping
// dragged nodes and indicators, whose vertical midpoint lies below y.
func (s *DragSession) insertionPoint(container *html.Node, y float64) *html.Node {
	indicator := s.ed.cfg.MetadataPrefix + "indicator"
	for _, c := range elementChildren(container) {
		if lo.Contains(s.nodes, c) {
			continue
		}
		if _, ok := lookupAttr(c, indicator); ok {
			continue
		}
		b, ok := s.ed.surface.Bounds(c)
		if !ok {
			continue
		}
		if b.MidY() > y {
			return c
		}
	}
	return nil
}

func (s *DragSession) clearTarget() {
	if s.target != nil {
		s.ed.surface.ClearTarget(s.target)
	}
	s.ed.surface.HideInsertionMarker()
	s.target, s.ref = nil, nil
}

// Commit applies the gesture as one mutation and one history entry. It
// reports whether the document changed.
func (s *DragSession) Commit(ev PointerEvent) bool {
	s.Update(ev)
	log := s.ed.log.With(slog.String("drag", s.ID), slog.String("mode", s.mode.String()))

	if s.mode == DragFreeMove {
		delta := ev.Pos.Sub(s.origin)
		s.revertPreview()
		err := s.ed.doc.Mutate("move", func(tx *Tx) error {
			for _, n := range s.nodes {
				o := s.origins[n]
				if err := tx.SetAttr(n, "style", offsetStyle(o.style, o.offset.Add(delta))); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Debug("drag commit rejected", slog.Any("err", err))
			return false
		}
		log.Debug("drag committed", slog.Float64("dx", delta.X), slog.Float64("dy", delta.Y))
		return s.ed.hist.CommitNow("move")
	}

	target, ref := s.target, s.ref
	s.clearTarget()
	if target == nil {
		log.Debug("drag released without a drop target")
		return false
	}
	err := s.ed.doc.Mutate("reparent", func(tx *Tx) error {
		for _, n := range s.moved {
			if err := tx.Move(n, target, ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Debug("drag commit rejected", slog.Any("err", err))
		return false
	}
	log.Debug("drag committed", slog.Int("nodes", len(s.moved)))
	return s.ed.hist.CommitNow("reparent")
}

// Cancel drops every preview without touching the document.
func (s *DragSession) Cancel() {
	s.revertPreview()
	s.clearTarget()
	s.ed.log.Debug("drag cancelled", slog.String("drag", s.ID))
}

// offsetStyle returns style with left/top set to off. A static or missing
// position becomes relative so that the offset takes effect.
func offsetStyle(style string, off Point) string {
	decls := parseDeclarations(style)
	if pos, ok := decls.get("position"); !ok || pos == "static" {
		decls = decls.set("position", "relative")
	}
	decls = decls.set("left", formatPx(off.X))
	decls = decls.set("top", formatPx(off.Y))
	return decls.String()
}
