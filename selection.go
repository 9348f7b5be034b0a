package vcedit

import (
	"slices"

	"github.com/samber/lo"
	"golang.org/x/net/html"
)

// Selection is the ordered set of selected nodes. Members are kept in the
// order they were added; the last one is the primary.
type Selection struct {
	doc   *Document
	nodes []*html.Node
}

// NewSelection creates an empty selection over doc.
func NewSelection(doc *Document) *Selection {
	return &Selection{doc: doc}
}

// Select replaces the set with n, or with additive set toggles n: a member
// is removed, a non-member is added and becomes primary. Non-editable or
// detached nodes are ignored.
func (s *Selection) Select(n *html.Node, additive bool) {
	if !s.doc.Editable(n) {
		return
	}
	if !additive {
		s.nodes = []*html.Node{n}
		return
	}
	if lo.Contains(s.nodes, n) {
		s.nodes = lo.Without(s.nodes, n)
		return
	}
	s.nodes = append(s.nodes, n)
}

// Add adds n without toggling, making it primary.
func (s *Selection) Add(n *html.Node) {
	if !s.doc.Editable(n) {
		return
	}
	s.nodes = append(lo.Without(s.nodes, n), n)
}

// Set replaces the set with nodes; the last editable one is primary.
func (s *Selection) Set(nodes []*html.Node) {
	s.nodes = nil
	for _, n := range nodes {
		s.Add(n)
	}
}

// Clear empties the set.
func (s *Selection) Clear() {
	s.nodes = nil
}

// SelectAll adds every editable node satisfying pred, in document order.
// A nil pred matches everything.
func (s *Selection) SelectAll(pred func(*html.Node) bool) {
	for _, n := range s.doc.EditableNodes() {
		if pred == nil || pred(n) {
			s.Add(n)
		}
	}
}

// Refresh drops members that are no longer attached. The primary becomes
// the most recently added survivor.
func (s *Selection) Refresh() {
	s.nodes = lo.Filter(s.nodes, func(n *html.Node, _ int) bool {
		return s.doc.Editable(n)
	})
}

// Primary returns the primary member, or nil when the set is empty.
func (s *Selection) Primary() *html.Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[len(s.nodes)-1]
}

// Contains reports whether n is selected.
func (s *Selection) Contains(n *html.Node) bool {
	return lo.Contains(s.nodes, n)
}

// Len returns the number of members.
func (s *Selection) Len() int { return len(s.nodes) }

// Nodes returns the members in the order they were added.
func (s *Selection) Nodes() []*html.Node {
	return append([]*html.Node(nil), s.nodes...)
}

// InDocumentOrder returns the members sorted by tree position.
func (s *Selection) InDocumentOrder() []*html.Node {
	return documentOrder(s.doc.Root(), s.nodes)
}

// Topmost returns the members in document order, minus any member that
// lies below another member.
func (s *Selection) Topmost() []*html.Node {
	ordered := s.InDocumentOrder()
	return lo.Filter(ordered, func(n *html.Node, _ int) bool {
		return !lo.ContainsBy(ordered, func(other *html.Node) bool {
			return other != n && isDescendantOf(n, other)
		})
	})
}

// documentOrder returns a copy of nodes sorted by tree position. Ties keep
// their input order.
func documentOrder(root *html.Node, nodes []*html.Node) []*html.Node {
	out := append([]*html.Node(nil), nodes...)
	if root == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b *html.Node) int {
		return comparePosition(root, a, b)
	})
	return out
}
