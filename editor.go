package vcedit

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeInfo describes a node for property panels and other consumers.
type NodeInfo struct {
	Path    string
	Tag     string
	ID      string
	Classes []string
	Attrs   []html.Attribute // without editor-only metadata, originals restored
	Text    string
	Style   Style
}

// Option configures an Editor.
type Option func(*options)

type options struct {
	cfg      Config
	log      *slog.Logger
	adapter  MarkupAdapter
	resolver StyleResolver
	prepare  []PrepareFunc
	post     func(func())
	surface  Surface
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option { return func(o *options) { o.cfg = cfg } }

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option { return func(o *options) { o.log = log } }

// WithAdapter sets the markup adapter (default HTMLAdapter).
func WithAdapter(a MarkupAdapter) Option { return func(o *options) { o.adapter = a } }

// WithResolver sets the style resolver (default InlineStyleResolver).
func WithResolver(r StyleResolver) Option { return func(o *options) { o.resolver = r } }

// WithPrepare adds a hook run on every parsed tree before it goes live.
func WithPrepare(fn PrepareFunc) Option {
	return func(o *options) { o.prepare = append(o.prepare, fn) }
}

// WithPost sets how deferred history commits reach the host event loop.
// Without it a debounced edit is committed by the next editor call.
func WithPost(post func(func())) Option { return func(o *options) { o.post = post } }

// WithSurface attaches a render surface up front.
func WithSurface(s Surface) Option { return func(o *options) { o.surface = s } }

// Editor ties the document store, selection, history and interaction
// controller together. Like the event loop that drives it, it is not safe
// for concurrent use. The history debounce timer never touches the tree
// itself; see WithPost.
type Editor struct {
	cfg Config
	log *slog.Logger

	doc  *Document
	sel  *Selection
	hist *History
	ctrl *Controller

	surface Surface
	binding *Binding

	lastSel []*html.Node
	docSubs listeners[func(Change)]
	selSubs listeners[func(*NodeInfo, int)]
}

// New creates an editor with nothing loaded.
func New(opts ...Option) (*Editor, error) {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}
	if o.surface == nil {
		o.surface = nopSurface{}
	}

	e := &Editor{
		cfg:     o.cfg,
		log:     o.log,
		surface: o.surface,
	}
	e.doc = NewDocument(o.adapter, o.resolver, o.cfg, o.log.With(slog.String("component", "document")))
	e.doc.prepare = o.prepare
	e.doc.onChange = e.documentChanged
	e.sel = NewSelection(e.doc)
	e.hist = NewHistory(o.cfg.HistoryCapacity, o.cfg.CommitDebounce(), e.doc.Serialize, e.restore, o.post,
		o.log.With(slog.String("component", "history")))
	e.ctrl = newController(e)
	return e, nil
}

// Document returns the document store.
func (e *Editor) Document() *Document { return e.doc }

// Selection returns the selection manager.
func (e *Editor) Selection() *Selection { return e.sel }

// History returns the undo/redo log.
func (e *Editor) History() *History { return e.hist }

// Controller returns the interaction state machine.
func (e *Editor) Controller() *Controller { return e.ctrl }

// Config returns the active configuration.
func (e *Editor) Config() Config { return e.cfg }

// Attach makes s the render surface and starts listening to it.
func (e *Editor) Attach(s Surface) {
	if s == nil {
		s = nopSurface{}
	}
	e.surface = s
	e.rebind()
}

func (e *Editor) rebind() {
	e.binding.Close()
	e.binding = Bind(e.surface, e.ctrl)
}

// Close stops listening to the surface and commits any pending edit.
func (e *Editor) Close() {
	e.binding.Close()
	e.binding = nil
	e.hist.Flush()
}

// Load replaces the document, clears history and selection, and re-creates
// the surface binding. A parse error leaves the previous document intact.
func (e *Editor) Load(markup string) error {
	e.hist.Flush()
	out, err := e.doc.load(markup, "load")
	if err != nil {
		return err
	}
	e.ctrl.reset()
	e.hist.Reset(out)
	e.sel.Clear()
	e.rebind()
	e.selectionChanged()
	e.log.Info("document loaded", slog.Int("bytes", len(markup)))
	return nil
}

// Serialize returns the current markup without editor-only metadata.
func (e *Editor) Serialize() (string, error) {
	return e.doc.Serialize()
}

// Undo restores the previous snapshot. Pending edits are committed first.
func (e *Editor) Undo() bool {
	e.abortGesture()
	return e.hist.Undo()
}

// Redo restores the next snapshot.
func (e *Editor) Redo() bool {
	e.abortGesture()
	return e.hist.Redo()
}

// CanUndo reports whether Undo would do anything. An edit whose debounce
// delay has passed is committed first.
func (e *Editor) CanUndo() bool {
	e.hist.Settle()
	return e.hist.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (e *Editor) CanRedo() bool {
	e.hist.Settle()
	return e.hist.CanRedo()
}

// Flush commits any pending debounced edit.
func (e *Editor) Flush() { e.hist.Flush() }

// restore is the history callback: it reloads markup without committing
// and re-resolves the selection by path.
func (e *Editor) restore(markup, label string) error {
	paths := e.selectedPaths()
	if _, err := e.doc.load(markup, label); err != nil {
		return err
	}
	e.ctrl.reset()
	e.reselect(paths)
	e.selectionChanged()
	return nil
}

func (e *Editor) abortGesture() {
	switch e.ctrl.state {
	case StateDragging:
		e.ctrl.drag.Cancel()
		e.ctrl.drag = nil
		e.ctrl.state = StateIdle
	case StateTextEditing:
		e.ctrl.finishTextEdit()
	}
}

func (e *Editor) selectedPaths() []string {
	var paths []string
	for _, n := range e.sel.Nodes() {
		if p, err := e.doc.PathOf(n); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

func (e *Editor) reselect(paths []string) {
	e.sel.Clear()
	for _, p := range paths {
		if n, err := e.doc.Lookup(p); err == nil {
			e.sel.Add(n)
		}
	}
}

// Lookup resolves a path against the live tree.
func (e *Editor) Lookup(path string) (*html.Node, bool) {
	n, err := e.doc.Lookup(path)
	if err != nil {
		e.log.Debug("stale path", slog.String("path", path), slog.Any("err", err))
		return nil, false
	}
	return n, true
}

// Select selects the node at path, toggling it when additive is set.
func (e *Editor) Select(path string, additive bool) bool {
	n, ok := e.Lookup(path)
	if !ok || !e.doc.Editable(n) {
		return false
	}
	e.sel.Select(n, additive)
	e.selectionChanged()
	return true
}

// SelectAll adds every editable node to the selection.
func (e *Editor) SelectAll() {
	e.sel.SelectAll(nil)
	e.selectionChanged()
}

// ClearSelection empties the selection.
func (e *Editor) ClearSelection() {
	e.sel.Clear()
	e.selectionChanged()
}

// Selected describes the selection members in the order they were added.
func (e *Editor) Selected() []NodeInfo {
	return lo.Map(e.sel.Nodes(), func(n *html.Node, _ int) NodeInfo { return *e.Info(n) })
}

// Info describes n, or returns nil if it is not attached.
func (e *Editor) Info(n *html.Node) *NodeInfo {
	if !e.doc.Attached(n) || n.Type != html.ElementNode {
		return nil
	}
	path, _ := e.doc.PathOf(n)
	clean := e.doc.meta.cleanClone(n)
	return &NodeInfo{
		Path:    path,
		Tag:     n.Data,
		ID:      getAttr(clean, "id"),
		Classes: strings.Fields(getAttr(clean, "class")),
		Attrs:   clean.Attr,
		Text:    textContent(n),
		Style:   e.doc.Style(n),
	}
}

// SetAttribute edits an attribute of the node at path. Successive edits of
// the same field are coalesced into one history entry.
func (e *Editor) SetAttribute(path, key, value string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || e.doc.meta.isMeta(key) {
		return false
	}
	return e.edit(path, "attr:"+key, func(tx *Tx, n *html.Node) error {
		return tx.SetAttr(n, key, value)
	})
}

// RemoveAttribute deletes an attribute of the node at path.
func (e *Editor) RemoveAttribute(path, key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || e.doc.meta.isMeta(key) {
		return false
	}
	n, ok := e.Lookup(path)
	if !ok || !e.doc.Editable(n) {
		return false
	}
	e.hist.Flush()
	if err := e.doc.Mutate("remove-attr:"+key, func(tx *Tx) error { return tx.RemoveAttr(n, key) }); err != nil {
		return false
	}
	e.afterMutation()
	e.hist.CommitNow("remove-attr:" + key)
	return true
}

// SetStyleProperty sets one inline style property (an empty value removes
// it), keeping the other declarations in order. Edits are coalesced like
// SetAttribute.
func (e *Editor) SetStyleProperty(path, prop, value string) bool {
	prop = strings.ToLower(strings.TrimSpace(prop))
	if prop == "" {
		return false
	}
	return e.edit(path, "style:"+prop, func(tx *Tx, n *html.Node) error {
		decls := parseDeclarations(getAttr(n, "style")).set(prop, value)
		if len(decls) == 0 {
			return tx.RemoveAttr(n, "style")
		}
		return tx.SetAttr(n, "style", decls.String())
	})
}

// edit applies a debounced field edit to the node at path.
func (e *Editor) edit(path, field string, fn func(tx *Tx, n *html.Node) error) bool {
	n, ok := e.Lookup(path)
	if !ok || !e.doc.Editable(n) {
		return false
	}
	key := path + "|" + field
	e.hist.FlushExcept(key)
	if err := e.doc.Mutate(field, func(tx *Tx) error { return fn(tx, n) }); err != nil {
		return false
	}
	e.afterMutation()
	e.hist.Schedule(key)
	return true
}

// SetText replaces the text content of the node at path.
func (e *Editor) SetText(path, text string) bool {
	n, ok := e.Lookup(path)
	if !ok || !e.doc.Editable(n) {
		return false
	}
	return e.setText(n, text)
}

func (e *Editor) setText(n *html.Node, text string) bool {
	e.hist.Flush()
	if err := e.doc.Mutate("text", func(tx *Tx) error { return tx.SetText(n, text) }); err != nil {
		return false
	}
	e.afterMutation()
	return e.hist.CommitNow("text")
}

// DeleteSelection removes every selected node as one mutation. The
// selection then falls back to the nearest surviving element sibling of
// the first deleted node, next before previous, or becomes empty.
func (e *Editor) DeleteSelection() bool {
	nodes := e.sel.Topmost()
	if len(nodes) == 0 {
		return false
	}
	fallback := e.deleteFallback(nodes)
	e.hist.Flush()
	err := e.doc.Mutate("delete", func(tx *Tx) error {
		for _, n := range nodes {
			if err := tx.Remove(n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false
	}
	e.sel.Clear()
	if fallback != nil {
		e.sel.Add(fallback)
	}
	e.afterMutation()
	e.hist.CommitNow("delete")
	return true
}

func (e *Editor) deleteFallback(deleted []*html.Node) *html.Node {
	first := deleted[0]
	ok := func(n *html.Node) bool {
		return n.Type == html.ElementNode && e.doc.Editable(n) && !lo.Contains(deleted, n)
	}
	for n := first.NextSibling; n != nil; n = n.NextSibling {
		if ok(n) {
			return n
		}
	}
	for n := first.PrevSibling; n != nil; n = n.PrevSibling {
		if ok(n) {
			return n
		}
	}
	return nil
}

// DuplicateSelection inserts a copy of each selected node right after it
// and selects the copies. Copies carry no id attributes.
func (e *Editor) DuplicateSelection() bool {
	nodes := e.sel.Topmost()
	if len(nodes) == 0 {
		return false
	}
	copies := make([]*html.Node, 0, len(nodes))
	e.hist.Flush()
	err := e.doc.Mutate("duplicate", func(tx *Tx) error {
		for _, n := range nodes {
			c := cloneNode(n)
			stripIDs(c)
			if err := tx.Insert(n.Parent, c, n.NextSibling); err != nil {
				return err
			}
			copies = append(copies, c)
		}
		return nil
	})
	if err != nil {
		return false
	}
	e.sel.Set(copies)
	e.afterMutation()
	e.hist.CommitNow("duplicate")
	return true
}

func stripIDs(n *html.Node) {
	if n.Type == html.ElementNode {
		removeAttr(n, "id")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		stripIDs(c)
	}
}

var tagName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ChangeTag replaces the node at path with a new element of another tag,
// carrying over its attributes and children. The original node is
// discarded; a selected original is replaced in the selection by the new
// node.
func (e *Editor) ChangeTag(path, tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	n, ok := e.Lookup(path)
	if !ok || !e.doc.Editable(n) || !tagName.MatchString(tag) || tag == n.Data {
		return false
	}
	nn := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	if !e.doc.rules.editable(nn) {
		return false
	}
	e.hist.Flush()
	err := e.doc.Mutate("tag", func(tx *Tx) error {
		if n.FirstChild != nil && isVoid(nn) {
			return fmt.Errorf("change tag to %s: %w", tag, ErrNotContainer)
		}
		if err := tx.Insert(n.Parent, nn, n); err != nil {
			return err
		}
		for c := n.FirstChild; c != nil; c = n.FirstChild {
			if err := tx.Move(c, nn, nil); err != nil {
				return err
			}
		}
		return tx.Remove(n)
	})
	if err != nil {
		return false
	}
	if e.sel.Contains(n) {
		nodes := e.sel.Nodes()
		nodes[slices.Index(nodes, n)] = nn
		e.sel.Set(nodes)
	}
	e.afterMutation()
	e.hist.CommitNow("tag")
	return true
}

// ApplyMarkup replaces the document content with markup as one undoable
// edit. The change is diffed against the live tree and applied in place,
// so unchanged nodes keep their identity; when that is not possible the
// document is reloaded from markup instead.
func (e *Editor) ApplyMarkup(markup string) error {
	if e.doc.Root() == nil {
		return e.Load(markup)
	}
	newRoot, err := e.doc.adapter.Parse(markup)
	if err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}
	want, err := e.doc.adapter.Serialize(newRoot)
	if err != nil {
		return fmt.Errorf("serialize markup: %w", err)
	}
	e.abortGesture()
	e.hist.Flush()

	err = e.doc.Mutate("markup", func(tx *Tx) error {
		ops, err := diffTrees(e.doc.meta.cleanClone(tx.Root()), newRoot)
		if err != nil {
			return err
		}
		for i, op := range ops {
			if err := applyOp(tx, op); err != nil {
				return fmt.Errorf("failed to apply op %d (%s): %w", i, op.Type, err)
			}
		}
		got, err := e.doc.adapter.Serialize(e.doc.meta.cleanClone(tx.Root()))
		if err != nil {
			return err
		}
		if got != want {
			return errors.New("in-place edit diverged from markup")
		}
		return nil
	})
	if err != nil {
		e.log.Debug("markup applied by reload", slog.Any("reason", err))
		paths := e.selectedPaths()
		if _, err := e.doc.load(markup, "markup"); err != nil {
			return err
		}
		e.ctrl.reset()
		e.reselect(paths)
	}
	e.afterMutation()
	e.hist.CommitNow("markup")
	return nil
}

// afterMutation re-establishes the selection and controller invariants.
func (e *Editor) afterMutation() {
	e.sel.Refresh()
	e.ctrl.sync()
	e.selectionChanged()
}

// selectionChanged notifies the surface and listeners if the selection
// differs from the last notification.
func (e *Editor) selectionChanged() {
	nodes := e.sel.Nodes()
	if slices.Equal(nodes, e.lastSel) {
		return
	}
	e.lastSel = nodes
	primary := e.sel.Primary()
	e.surface.SetSelection(nodes, primary)
	info := e.Info(primary)
	for _, fn := range e.selSubs.snapshot() {
		fn(info, len(nodes))
	}
}

func (e *Editor) documentChanged(c Change) {
	for _, fn := range e.docSubs.snapshot() {
		fn(c)
	}
}

// OnDocumentChanged registers fn for every committed mutation, load and
// history restore. The returned func unregisters it.
func (e *Editor) OnDocumentChanged(fn func(Change)) (cancel func()) {
	return e.docSubs.add(fn)
}

// OnSelectionChanged registers fn for selection changes. It receives the
// primary node (nil when empty) and the member count.
func (e *Editor) OnSelectionChanged(fn func(primary *NodeInfo, count int)) (cancel func()) {
	return e.selSubs.add(fn)
}

// listeners is an ordered set of callbacks.
type listeners[F any] struct {
	seq     int
	entries []listenerEntry[F]
}

type listenerEntry[F any] struct {
	id int
	fn F
}

func (l *listeners[F]) add(fn F) func() {
	l.seq++
	id := l.seq
	l.entries = append(l.entries, listenerEntry[F]{id: id, fn: fn})
	return func() {
		l.entries = slices.DeleteFunc(l.entries, func(e listenerEntry[F]) bool { return e.id == id })
	}
}

func (l *listeners[F]) snapshot() []F {
	return lo.Map(l.entries, func(e listenerEntry[F], _ int) F { return e.fn })
}
