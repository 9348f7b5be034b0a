package vcedit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/net/html"
)

// Diff calculates the operations needed to transform 'oldHTML' into 'newHTML'.
// Both are parsed with adapter, so fragments diff as fragments.
//
// Operations are meant to be applied in order: paths in each operation
// refer to the tree as left by the operations before it.
func Diff(adapter MarkupAdapter, oldHTML, newHTML, author string) (*Delta, error) {
	if adapter == nil {
		adapter = HTMLAdapter{}
	}
	oldDoc, err := adapter.Parse(oldHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse old HTML: %w", err)
	}
	newDoc, err := adapter.Parse(newHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse new HTML: %w", err)
	}

	ops, err := diffTrees(oldDoc, newDoc)
	if err != nil {
		return nil, err
	}
	return &Delta{
		BaseHash:   hashString(oldHTML),
		Operations: ops,
		Timestamp:  time.Now().Unix(),
		Author:     author,
	}, nil
}

func hashString(s string) string {
	h := sha256.New()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// diffTrees diffs two roots. Roots cannot be replaced, so they must agree
// in kind.
func diffTrees(oldRoot, newRoot *html.Node) ([]Operation, error) {
	if !sameKind(oldRoot, newRoot) {
		return nil, ErrRootMismatch
	}
	return diffNodes(oldRoot, newRoot, NodePath{})
}

// sameKind reports whether two nodes can be diffed in place rather than
// replaced.
func sameKind(a, b *html.Node) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case html.ElementNode:
		return a.DataAtom == b.DataAtom && a.Data == b.Data && a.Namespace == b.Namespace
	case html.DoctypeNode:
		return a.Data == b.Data && fmt.Sprint(a.Attr) == fmt.Sprint(b.Attr)
	}
	return true
}

// diffNodes compares two nodes of the same kind and returns a list of
// operations.
func diffNodes(oldNode, newNode *html.Node, path NodePath) ([]Operation, error) {
	var ops []Operation

	if oldNode.Type == html.ElementNode {
		ops = append(ops, diffAttributes(oldNode, newNode, path)...)
	}

	if oldNode.Type == html.TextNode || oldNode.Type == html.CommentNode {
		if oldNode.Data != newNode.Data {
			ops = append(ops, Operation{
				Type:     OpUpdateText,
				Path:     path,
				OldValue: oldNode.Data,
				NewValue: newNode.Data,
			})
		}
	}

	childOps, err := diffChildren(oldNode, newNode, path)
	if err != nil {
		return nil, err
	}
	ops = append(ops, childOps...)

	return ops, nil
}

// diffAttributes walks attributes in document order so the result is
// deterministic.
func diffAttributes(oldNode, newNode *html.Node, path NodePath) []Operation {
	var ops []Operation

	for _, a := range oldNode.Attr {
		vNew, exists := lookupAttr(newNode, a.Key)
		if a.Namespace != "" {
			continue
		}
		if !exists {
			ops = append(ops, Operation{
				Type:     OpRemoveAttr,
				Path:     path,
				Key:      a.Key,
				OldValue: a.Val,
			})
		} else if a.Val != vNew {
			ops = append(ops, Operation{
				Type:     OpUpdateAttr,
				Path:     path,
				Key:      a.Key,
				OldValue: a.Val,
				NewValue: vNew,
			})
		}
	}

	for _, a := range newNode.Attr {
		if a.Namespace != "" {
			continue
		}
		if _, exists := lookupAttr(oldNode, a.Key); !exists {
			ops = append(ops, Operation{
				Type:     OpUpdateAttr,
				Path:     path,
				Key:      a.Key,
				NewValue: a.Val,
			})
		}
	}

	return ops
}

// diffChildren compares lists of children by index. Matching kinds are
// diffed recursively, mismatched ones are replaced (delete + insert at the
// same index), surplus old children are deleted from the end and surplus
// new ones appended.
// Note: This is NOT minimal for reordering or inserting in the middle,
// as it will detect everything after as changed.
func diffChildren(oldNode, newNode *html.Node, parentPath NodePath) ([]Operation, error) {
	var ops []Operation

	oldChildren := getChildrenList(oldNode)
	newChildren := getChildrenList(newNode)

	commonLen := min(len(oldChildren), len(newChildren))

	for i := 0; i < commonLen; i++ {
		childPath := append(append(NodePath(nil), parentPath...), i)

		if !sameKind(oldChildren[i], newChildren[i]) {
			nodeHTML, err := RenderNode(newChildren[i])
			if err != nil {
				return nil, err
			}
			ops = append(ops,
				Operation{Type: OpDeleteNode, Path: childPath},
				Operation{Type: OpInsertNode, Path: parentPath, Position: i, NodeData: nodeHTML},
			)
			continue
		}

		childOps, err := diffNodes(oldChildren[i], newChildren[i], childPath)
		if err != nil {
			return nil, err
		}
		ops = append(ops, childOps...)
	}

	// We must delete from the end to avoid shifting indices affecting subsequent deletions
	for i := len(oldChildren) - 1; i >= commonLen; i-- {
		ops = append(ops, Operation{
			Type: OpDeleteNode,
			Path: append(append(NodePath(nil), parentPath...), i),
		})
	}

	for i := commonLen; i < len(newChildren); i++ {
		nodeHTML, err := RenderNode(newChildren[i])
		if err != nil {
			return nil, err
		}
		ops = append(ops, Operation{
			Type:     OpInsertNode,
			Path:     parentPath,
			Position: i,
			NodeData: nodeHTML,
		})
	}

	return ops, nil
}
