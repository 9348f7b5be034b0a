package vcedit

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tags reserved for document structure, metadata and style declarations.
// They can never be hovered, selected, dragged or dropped into.
var defaultReservedTags = []string{
	"html", "head", "body", "title", "meta", "link", "style", "script",
	"base", "noscript", "template",
}

// Tags that are valid drag sources but never drop targets: replaced or
// form content whose children are not laid out as flow.
var defaultNonContainerTags = []string{
	"textarea", "select", "option", "iframe", "canvas", "video", "audio",
	"object", "picture", "svg", "math",
}

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

// tagRules classifies elements for editing and dropping.
type tagRules struct {
	reserved     map[string]bool
	nonContainer map[string]bool
}

func newTagRules(reserved, nonContainer []string) tagRules {
	r := tagRules{
		reserved:     make(map[string]bool, len(reserved)),
		nonContainer: make(map[string]bool, len(nonContainer)),
	}
	for _, t := range reserved {
		r.reserved[strings.ToLower(t)] = true
	}
	for _, t := range nonContainer {
		r.nonContainer[strings.ToLower(t)] = true
	}
	return r
}

// editable reports whether n may be hovered, selected or dragged.
func (r tagRules) editable(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && !r.reserved[n.Data]
}

// container reports whether n may receive dropped children. The document
// body (and a fragment root) is a container even though it is reserved.
func (r tagRules) container(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if isVoid(n) || r.nonContainer[n.Data] {
		return false
	}
	if n.DataAtom == atom.Body {
		return true
	}
	return !r.reserved[n.Data]
}

func isVoid(n *html.Node) bool {
	if n.DataAtom != 0 {
		return voidElements[n.DataAtom]
	}
	return voidElements[atom.Lookup([]byte(n.Data))]
}
