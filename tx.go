package vcedit

import (
	"fmt"

	"golang.org/x/net/html"
)

// Tx applies primitive changes to a tree and journals an inverse for each,
// so a failing mutation can be rolled back to exactly the prior state.
// Every primitive checks its preconditions first and fails without
// touching the tree.
type Tx struct {
	root *html.Node
	meta metadata
	undo []func()
	ops  []Operation
}

func newTx(root *html.Node, meta metadata) *Tx {
	return &Tx{root: root, meta: meta}
}

// Root returns the tree root the transaction works on.
func (tx *Tx) Root() *html.Node { return tx.root }

// Ops returns the operations applied so far.
func (tx *Tx) Ops() []Operation { return tx.ops }

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.ops = nil
}

func (tx *Tx) attached(n *html.Node) error {
	if n == nil || !isDescendantOf(n, tx.root) {
		return ErrDetached
	}
	return nil
}

func (tx *Tx) path(n *html.Node) NodePath {
	p, _ := GetPath(tx.root, n)
	return p
}

// Insert adds a detached child to parent before ref (nil appends).
func (tx *Tx) Insert(parent, child, ref *html.Node) error {
	if err := tx.attached(parent); err != nil {
		return err
	}
	if child == nil || child.Parent != nil || child.PrevSibling != nil || child.NextSibling != nil {
		return fmt.Errorf("insert: child must be detached")
	}
	if parent.Type != html.ElementNode && parent.Type != html.DocumentNode {
		return fmt.Errorf("insert: %w", ErrNotContainer)
	}
	if ref != nil && ref.Parent != parent {
		return fmt.Errorf("insert: reference node is not a child of parent: %w", ErrDetached)
	}
	data, err := RenderNode(tx.meta.cleanClone(child))
	if err != nil {
		return err
	}
	parent.InsertBefore(child, ref)
	tx.undo = append(tx.undo, func() { parent.RemoveChild(child) })
	tx.ops = append(tx.ops, Operation{
		Type:     OpInsertNode,
		Path:     tx.path(parent),
		Position: getChildIndex(parent, child),
		NodeData: data,
	})
	return nil
}

// Remove detaches n from its parent.
func (tx *Tx) Remove(n *html.Node) error {
	if err := tx.attached(n); err != nil {
		return err
	}
	if n == tx.root {
		return fmt.Errorf("remove: cannot remove the root")
	}
	path := tx.path(n)
	parent, next := n.Parent, n.NextSibling
	parent.RemoveChild(n)
	tx.undo = append(tx.undo, func() { parent.InsertBefore(n, next) })
	tx.ops = append(tx.ops, Operation{Type: OpDeleteNode, Path: path})
	return nil
}

// Move reparents n into parent before ref (nil appends). Moving a node
// into itself or one of its descendants fails with ErrCycle.
func (tx *Tx) Move(n, parent, ref *html.Node) error {
	if err := tx.attached(n); err != nil {
		return err
	}
	if err := tx.attached(parent); err != nil {
		return err
	}
	if n == tx.root {
		return fmt.Errorf("move: cannot move the root")
	}
	if isDescendantOf(parent, n) {
		return ErrCycle
	}
	if ref == n {
		ref = n.NextSibling
	}
	if ref != nil && ref.Parent != parent {
		return fmt.Errorf("move: reference node is not a child of parent: %w", ErrDetached)
	}
	from := tx.path(n)
	oldParent, oldNext := n.Parent, n.NextSibling
	oldParent.RemoveChild(n)
	parent.InsertBefore(n, ref)
	tx.undo = append(tx.undo, func() {
		parent.RemoveChild(n)
		oldParent.InsertBefore(n, oldNext)
	})
	tx.ops = append(tx.ops, Operation{
		Type:     OpMoveNode,
		Path:     from,
		Target:   tx.path(parent),
		Position: getChildIndex(parent, n),
	})
	return nil
}

// Replace swaps old for a detached replacement at the same position.
func (tx *Tx) Replace(old, replacement *html.Node) error {
	if err := tx.attached(old); err != nil {
		return err
	}
	if old == tx.root {
		return fmt.Errorf("replace: cannot replace the root")
	}
	parent, next := old.Parent, old.NextSibling
	if err := tx.Remove(old); err != nil {
		return err
	}
	return tx.Insert(parent, replacement, next)
}

// SetAttr sets an attribute. A real edit of a provisionally rewritten
// attribute drops the provisional marker.
func (tx *Tx) SetAttr(n *html.Node, key, val string) error {
	if err := tx.attached(n); err != nil {
		return err
	}
	if n.Type != html.ElementNode {
		return fmt.Errorf("set attribute on non-element: %w", ErrNotEditable)
	}
	old, _ := lookupAttr(n, key)
	if tx.meta.isProvisional(n, key) {
		old = tx.originalAttr(n, key)
	}
	tx.saveAttrs(n)
	tx.meta.forget(n, key)
	setAttr(n, key, val)
	if !tx.meta.isMeta(key) {
		tx.ops = append(tx.ops, Operation{Type: OpUpdateAttr, Path: tx.path(n), Key: key, OldValue: old, NewValue: val})
	}
	return nil
}

// RemoveAttr deletes an attribute. Removing an absent attribute is a no-op.
func (tx *Tx) RemoveAttr(n *html.Node, key string) error {
	if err := tx.attached(n); err != nil {
		return err
	}
	old, ok := lookupAttr(n, key)
	if !ok {
		return nil
	}
	if tx.meta.isProvisional(n, key) {
		old = tx.originalAttr(n, key)
	}
	tx.saveAttrs(n)
	tx.meta.forget(n, key)
	removeAttr(n, key)
	if !tx.meta.isMeta(key) {
		tx.ops = append(tx.ops, Operation{Type: OpRemoveAttr, Path: tx.path(n), Key: key, OldValue: old})
	}
	return nil
}

func (tx *Tx) originalAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, tx.meta.origKey(key))
	return v
}

func (tx *Tx) saveAttrs(n *html.Node) {
	saved := append([]html.Attribute(nil), n.Attr...)
	tx.undo = append(tx.undo, func() { n.Attr = saved })
}

// SetText replaces the content of n with a single text node. A text node
// target has its data replaced directly.
func (tx *Tx) SetText(n *html.Node, text string) error {
	if err := tx.attached(n); err != nil {
		return err
	}
	switch n.Type {
	case html.TextNode:
		return tx.setData(n, text)
	case html.ElementNode:
	default:
		return fmt.Errorf("set text: %w", ErrNotEditable)
	}
	if c := n.FirstChild; c != nil && c.NextSibling == nil && c.Type == html.TextNode {
		if text == "" {
			return tx.Remove(c)
		}
		return tx.setData(c, text)
	}
	for c := n.LastChild; c != nil; c = n.LastChild {
		if err := tx.Remove(c); err != nil {
			return err
		}
	}
	if text == "" {
		return nil
	}
	return tx.Insert(n, &html.Node{Type: html.TextNode, Data: text}, nil)
}

func (tx *Tx) setData(n *html.Node, text string) error {
	old := n.Data
	if old == text {
		return nil
	}
	n.Data = text
	tx.undo = append(tx.undo, func() { n.Data = old })
	tx.ops = append(tx.ops, Operation{Type: OpUpdateText, Path: tx.path(n), OldValue: old, NewValue: text})
	return nil
}
