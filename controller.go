package vcedit

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"
)

// State is the interaction state of the controller.
type State uint8

const (
	StateIdle State = iota
	StateHovering
	StateTextEditing
	StateDragging
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateHovering:
		return "hovering"
	case StateTextEditing:
		return "text-editing"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// press is a primary-button press on a selected node that may become a drag.
type press struct {
	node   *html.Node
	origin Point
}

// Controller is the pointer and keyboard state machine. All of its state
// is owned here and passed explicitly; nothing is global.
type Controller struct {
	ed  *Editor
	log *slog.Logger

	state   State
	hover   *html.Node
	editing *html.Node
	press   *press
	drag    *DragSession

	// suppressClick swallows the click a browser delivers after a drag.
	suppressClick bool
}

func newController(ed *Editor) *Controller {
	return &Controller{ed: ed, log: ed.log}
}

// State returns the current interaction state.
func (c *Controller) State() State { return c.state }

// Hovered returns the hovered node, if any.
func (c *Controller) Hovered() *html.Node { return c.hover }

// Editing returns the node in text editing, if any.
func (c *Controller) Editing() *html.Node { return c.editing }

// Drag returns the active drag session, if any.
func (c *Controller) Drag() *DragSession { return c.drag }

// editableAt hit-tests p and walks up to the nearest editable node. The
// root and anything outside the surface count as background (nil).
func (c *Controller) editableAt(p Point) *html.Node {
	for n := c.ed.surface.HitTest(p); n != nil; n = n.Parent {
		if c.ed.doc.Editable(n) {
			return n
		}
	}
	return nil
}

func (c *Controller) setHover(n *html.Node) {
	if n == c.hover {
		return
	}
	c.hover = n
	c.ed.surface.SetHover(n)
	if c.state == StateIdle || c.state == StateHovering {
		if n != nil {
			c.state = StateHovering
		} else {
			c.state = StateIdle
		}
	}
}

// PointerMove updates hover, crosses the drag threshold or feeds the
// active drag session.
func (c *Controller) PointerMove(ev PointerEvent) {
	switch {
	case c.state == StateDragging:
		c.drag.Update(ev)
		return
	case c.state == StateTextEditing:
		return
	case c.press != nil:
		if ev.Pos.Distance(c.press.origin) > c.ed.cfg.DragThreshold {
			c.startDrag(ev)
			return
		}
	}
	c.setHover(c.editableAt(ev.Pos))
}

// PointerLeave clears hover when the pointer leaves the surface.
func (c *Controller) PointerLeave() {
	if c.state == StateDragging || c.state == StateTextEditing {
		return
	}
	c.setHover(nil)
}

// PointerDown arms a potential drag when the press lands on a selected node.
func (c *Controller) PointerDown(ev PointerEvent) {
	c.ed.hist.Settle()
	c.suppressClick = false
	if ev.Button != ButtonPrimary || c.state == StateTextEditing || c.state == StateDragging {
		return
	}
	c.press = nil
	if n := c.editableAt(ev.Pos); n != nil && c.ed.sel.Contains(n) {
		c.press = &press{node: n, origin: ev.Pos}
	}
}

func (c *Controller) startDrag(ev PointerEvent) {
	origin := c.press.origin
	c.press = nil
	if c.ed.sel.Len() == 0 {
		return
	}
	c.ed.hist.Flush()
	c.setHover(nil)
	c.drag = newDragSession(c.ed, c.ed.sel.Nodes(), origin)
	c.state = StateDragging
	c.log.Debug("drag started", slog.String("drag", c.drag.ID), slog.Int("nodes", c.ed.sel.Len()))
	c.drag.Update(ev)
}

// PointerUp commits an active drag.
func (c *Controller) PointerUp(ev PointerEvent) {
	c.press = nil
	if c.state != StateDragging {
		return
	}
	drag := c.drag
	c.drag = nil
	c.state = StateIdle
	c.suppressClick = true
	drag.Commit(ev)
	c.ed.afterMutation()
	c.setHover(c.editableAt(ev.Pos))
}

// Click selects the clicked node (toggling with the multi-select modifier)
// or clears the selection on the background.
func (c *Controller) Click(ev PointerEvent) {
	if c.suppressClick {
		c.suppressClick = false
		return
	}
	if ev.Button != ButtonPrimary || c.state == StateTextEditing || c.state == StateDragging {
		return
	}
	n := c.editableAt(ev.Pos)
	if n == nil {
		c.ed.sel.Clear()
	} else {
		c.ed.sel.Select(n, ev.Modifiers.Has(c.ed.cfg.multiSelect()))
	}
	c.ed.selectionChanged()
}

// DoubleClick enters text editing on an editable node without element
// children.
func (c *Controller) DoubleClick(ev PointerEvent) {
	if c.state == StateTextEditing || c.state == StateDragging {
		return
	}
	n := c.editableAt(ev.Pos)
	if n == nil || hasElementChildren(n) {
		return
	}
	c.ed.hist.Flush()
	c.press = nil
	c.setHover(nil)
	c.ed.sel.Select(n, false)
	c.ed.selectionChanged()

	c.editing = n
	c.state = StateTextEditing
	c.ed.doc.SetProvisional(n, "contenteditable", "true")
	c.ed.surface.Refresh(n)
	c.log.Debug("text edit started")
}

// Blur commits the edited text and leaves text editing.
func (c *Controller) Blur(text string) {
	if c.state != StateTextEditing {
		return
	}
	n := c.finishTextEdit()
	if n == nil {
		return
	}
	if textContent(n) != text {
		c.ed.setText(n, text)
	}
	c.log.Debug("text edit committed")
}

// finishTextEdit leaves text editing and returns the node that was being
// edited if it is still attached.
func (c *Controller) finishTextEdit() *html.Node {
	n := c.editing
	c.editing = nil
	c.state = StateIdle
	if !c.ed.doc.Attached(n) {
		return nil
	}
	c.ed.doc.RestoreProvisional(n, "contenteditable")
	c.ed.surface.Refresh(n)
	return n
}

// KeyDown handles editor shortcuts and reports whether the key was used.
// While text editing only Escape is handled.
func (c *Controller) KeyDown(ev KeyEvent) bool {
	c.ed.hist.Settle()
	if ev.Key == KeyEscape {
		c.Escape()
		return true
	}
	if c.state == StateTextEditing || c.state == StateDragging {
		return false
	}
	switch key := strings.ToLower(ev.Key); {
	case ev.Key == KeyDelete || ev.Key == KeyBackspace:
		return c.ed.DeleteSelection()
	case ev.primary() && key == "z" && ev.Modifiers.Has(ModShift), ev.primary() && key == "y":
		return c.ed.Redo()
	case ev.primary() && key == "z":
		return c.ed.Undo()
	case ev.primary() && key == "a":
		c.ed.SelectAll()
		return true
	case ev.primary() && key == "d":
		return c.ed.DuplicateSelection()
	}
	return false
}

// Escape cancels any drag without applying it, leaves text editing
// discarding the edit, and clears the selection.
func (c *Controller) Escape() {
	c.press = nil
	if c.drag != nil {
		c.drag.Cancel()
		c.drag = nil
		c.suppressClick = true
	}
	if c.state == StateTextEditing {
		c.finishTextEdit()
		c.log.Debug("text edit discarded")
	}
	c.state = StateIdle
	c.hover = nil
	c.ed.surface.SetHover(nil)
	c.ed.sel.Clear()
	c.ed.selectionChanged()
}

// reset drops all gesture state; used when the document is replaced.
func (c *Controller) reset() {
	if c.drag != nil {
		c.drag.Cancel()
	}
	c.drag = nil
	c.press = nil
	c.editing = nil
	c.hover = nil
	c.state = StateIdle
	c.suppressClick = false
}

// sync drops references to nodes that are no longer attached.
func (c *Controller) sync() {
	if c.hover != nil && !c.ed.doc.Attached(c.hover) {
		c.setHover(nil)
	}
	if c.press != nil && !c.ed.doc.Attached(c.press.node) {
		c.press = nil
	}
	if c.state == StateTextEditing && !c.ed.doc.Attached(c.editing) {
		c.editing = nil
		c.state = StateIdle
	}
}
