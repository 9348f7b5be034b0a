package vcedit

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"
)

// PrepareFunc runs on every freshly parsed tree before it becomes live,
// typically to rewrite resource references for display with
// Document.SetProvisional.
type PrepareFunc func(d *Document, root *html.Node)

// Document owns the live node tree.
//
// Paths are recomputed from tree position on every lookup; nothing is
// cached across mutations except resolved styles, which are dropped on
// every change.
type Document struct {
	adapter  MarkupAdapter
	resolver StyleResolver
	rules    tagRules
	meta     metadata
	prepare  []PrepareFunc
	log      *slog.Logger

	root   *html.Node
	styles map[*html.Node]Style

	onChange func(Change)
}

// NewDocument creates an empty document store.
func NewDocument(adapter MarkupAdapter, resolver StyleResolver, cfg Config, log *slog.Logger) *Document {
	if adapter == nil {
		adapter = HTMLAdapter{}
	}
	if resolver == nil {
		resolver = InlineStyleResolver{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Document{
		adapter:  adapter,
		resolver: resolver,
		rules:    newTagRules(cfg.ReservedTags, cfg.NonContainerTags),
		meta:     metadata{prefix: cfg.MetadataPrefix},
		log:      log,
		styles:   make(map[*html.Node]Style),
	}
}

// Load parses markup and replaces the live tree. If parsing or serializing
// the prepared tree fails, the previous tree stays authoritative.
func (d *Document) Load(markup string) error {
	_, err := d.load(markup, "load")
	return err
}

// load parses and prepares markup, and installs it only once its clean
// form serializes. It returns that clean form.
func (d *Document) load(markup, label string) (string, error) {
	root, err := d.adapter.Parse(markup)
	if err != nil {
		d.log.Warn("markup parse failed", slog.Any("err", err))
		return "", fmt.Errorf("parse markup: %w", err)
	}
	for _, fn := range d.prepare {
		fn(d, root)
	}
	out, err := d.adapter.Serialize(d.meta.cleanClone(root))
	if err != nil {
		d.log.Warn("markup serialize failed", slog.Any("err", err))
		return "", fmt.Errorf("serialize markup: %w", err)
	}
	d.root = root
	d.styles = make(map[*html.Node]Style)
	d.emit(Change{Label: label, Reload: true})
	return out, nil
}

// Root returns the live root, or nil before the first load.
func (d *Document) Root() *html.Node { return d.root }

// Attached reports whether n is part of the live tree.
func (d *Document) Attached(n *html.Node) bool {
	return d.root != nil && n != nil && isDescendantOf(n, d.root)
}

// Editable reports whether n is attached and may be selected or dragged.
func (d *Document) Editable(n *html.Node) bool {
	return n != d.root && d.rules.editable(n) && d.Attached(n)
}

// Container reports whether n is attached and may receive dropped nodes.
func (d *Document) Container(n *html.Node) bool {
	return d.rules.container(n) && d.Attached(n)
}

// Lookup resolves an external path against the current tree.
func (d *Document) Lookup(path string) (*html.Node, error) {
	if d.root == nil {
		return nil, ErrNoDocument
	}
	return ResolvePath(d.root, path)
}

// PathOf returns the external path of n.
func (d *Document) PathOf(n *html.Node) (string, error) {
	if d.root == nil {
		return "", ErrNoDocument
	}
	return ElementPath(d.root, n)
}

// EditableNodes lists every editable element in document order.
func (d *Document) EditableNodes() []*html.Node {
	var nodes []*html.Node
	if d.root == nil {
		return nodes
	}
	walkElements(d.root, func(n *html.Node) bool {
		if d.rules.editable(n) {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// Style returns the resolved style of n, cached until the next change.
func (d *Document) Style(n *html.Node) Style {
	if st, ok := d.styles[n]; ok {
		return st
	}
	st := d.resolver.Resolve(n)
	d.styles[n] = st
	return st
}

// Mutate runs fn inside a transaction on the live tree. If fn fails every
// change it made is rolled back and the error is returned; on success the
// change is published to the document-changed listener.
func (d *Document) Mutate(label string, fn func(tx *Tx) error) error {
	if d.root == nil {
		return ErrNoDocument
	}
	tx := newTx(d.root, d.meta)
	if err := fn(tx); err != nil {
		tx.rollback()
		d.log.Debug("mutation rejected", slog.String("label", label), slog.Any("err", err))
		return err
	}
	d.styles = make(map[*html.Node]Style)
	if len(tx.ops) > 0 {
		d.emit(Change{Label: label, Ops: tx.ops})
	}
	return nil
}

// Serialize renders the live tree with provisional attributes restored and
// editor-only metadata stripped.
func (d *Document) Serialize() (string, error) {
	if d.root == nil {
		return "", ErrNoDocument
	}
	out, err := d.adapter.Serialize(d.meta.cleanClone(d.root))
	if err != nil {
		d.log.Warn("markup serialize failed", slog.Any("err", err))
		return "", fmt.Errorf("serialize markup: %w", err)
	}
	return out, nil
}

// SetProvisional rewrites an attribute for display only. Serialize emits
// the original value (or omits the attribute if it had none).
func (d *Document) SetProvisional(n *html.Node, key, display string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	d.meta.setProvisional(n, key, display)
	delete(d.styles, n)
}

// RestoreProvisional undoes SetProvisional for one key.
func (d *Document) RestoreProvisional(n *html.Node, key string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	d.meta.restore(n, key)
	delete(d.styles, n)
}

func (d *Document) emit(c Change) {
	if d.onChange != nil {
		d.onChange(c)
	}
}
