package vcedit

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Patch applies the changes in 'delta' to 'baseHTML'. When the delta
// carries a base hash it must match baseHTML. Operations apply atomically:
// a failing one leaves nothing applied.
func Patch(adapter MarkupAdapter, baseHTML string, delta *Delta) (string, error) {
	if adapter == nil {
		adapter = HTMLAdapter{}
	}
	if delta.BaseHash != "" {
		if currentHash := hashString(baseHTML); currentHash != delta.BaseHash {
			return "", fmt.Errorf("base hash mismatch: expected %s, got %s", delta.BaseHash, currentHash)
		}
	}

	doc, err := adapter.Parse(baseHTML)
	if err != nil {
		return "", err
	}

	tx := newTx(doc, metadata{prefix: DefaultMetadataPrefix})
	for i, op := range delta.Operations {
		if err := applyOp(tx, op); err != nil {
			tx.rollback()
			return "", fmt.Errorf("failed to apply op %d (%s): %w", i, op.Type, err)
		}
	}

	return adapter.Serialize(doc)
}

// applyOp replays one recorded operation through tx, so it is journaled
// like any other mutation.
func applyOp(tx *Tx, op Operation) error {
	root := tx.Root()
	switch op.Type {
	case OpUpdateText:
		node, err := GetNode(root, op.Path)
		if err != nil {
			return err
		}
		if node.Type != html.TextNode && node.Type != html.CommentNode {
			return fmt.Errorf("target node for UPDATE_TEXT is not a text node (type=%d)", node.Type)
		}
		if node.Data != op.OldValue {
			return fmt.Errorf("UPDATE_TEXT old value mismatch: want '%s', got '%s'", op.OldValue, node.Data)
		}
		return tx.setData(node, op.NewValue)

	case OpUpdateAttr:
		node, err := GetNode(root, op.Path)
		if err != nil {
			return err
		}
		if node.Type != html.ElementNode {
			return errors.New("target node for UPDATE_ATTR is not an element node")
		}
		return tx.SetAttr(node, op.Key, op.NewValue)

	case OpRemoveAttr:
		node, err := GetNode(root, op.Path)
		if err != nil {
			return err
		}
		if node.Type != html.ElementNode {
			return errors.New("target node for REMOVE_ATTR is not an element node")
		}
		return tx.RemoveAttr(node, op.Key)

	case OpInsertNode:
		// Path is Parent
		parent, err := GetNode(root, op.Path)
		if err != nil {
			return err
		}
		newNode, err := parseNodeData(parent, op.NodeData)
		if err != nil {
			return err
		}
		if newNode == nil {
			return nil // No-op
		}
		return tx.Insert(parent, newNode, getChildAtIndex(parent, op.Position))

	case OpDeleteNode:
		// Path is the node itself
		node, err := GetNode(root, op.Path)
		if err != nil {
			return err
		}
		if node.Parent == nil {
			return errors.New("cannot delete root node or orphan")
		}
		return tx.Remove(node)

	case OpMoveNode:
		node, err := GetNode(root, op.Path)
		if err != nil {
			return err
		}
		if err := tx.Remove(node); err != nil {
			return err
		}
		// Target is addressed in the tree without the moved node.
		parent, err := GetNode(root, op.Target)
		if err != nil {
			return err
		}
		return tx.Insert(parent, node, getChildAtIndex(parent, op.Position))

	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

// parseNodeData parses a single rendered node in the context of parent.
// Element context matters for parsing (e.g. <tr> inside <table>).
func parseNodeData(parent *html.Node, data string) (*html.Node, error) {
	if parent.Type != html.ElementNode {
		return nil, errors.New("can only insert below an element")
	}
	nodes, err := html.ParseFragment(strings.NewReader(data), parent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node data: %w", err)
	}
	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return nodes[0], nil
	}
	return nil, fmt.Errorf("node data parsed into %d nodes", len(nodes))
}
