package vcedit

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// pathSeparator joins path segments, e.g. "#main > ul > li:3".
const pathSeparator = " > "

// ElementPath returns the external address of n below root.
//
// Each segment is the tag name, suffixed with ":n" (1-based nth-of-type)
// when the parent has more than one child of that tag. The walk stops early
// at the nearest ancestor-or-self whose id is unique in the tree; that
// segment is written "#id". The root itself has the empty path.
func ElementPath(root, n *html.Node) (string, error) {
	if n == nil || !isDescendantOf(n, root) {
		return "", ErrDetached
	}
	ids := idCounts(root)
	var segs []string
	for cur := n; cur != root; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			return "", fmt.Errorf("%w: not an element", ErrInvalidPath)
		}
		if id := getAttr(cur, "id"); id != "" && ids[id] == 1 {
			segs = append(segs, "#"+id)
			break
		}
		segs = append(segs, typeSegment(cur))
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, pathSeparator), nil
}

func typeSegment(n *html.Node) string {
	nth, total := 0, 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != n.Data {
			continue
		}
		total++
		if c == n {
			nth = total
		}
	}
	if total > 1 {
		return n.Data + ":" + strconv.Itoa(nth)
	}
	return n.Data
}

// ResolvePath finds the element addressed by path, recomputing from the
// current tree. A path that no longer matches reports ErrDetached.
func ResolvePath(root *html.Node, path string) (*html.Node, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return root, nil
	}
	segs := strings.Split(path, strings.TrimSpace(pathSeparator))
	cur := root
	for i, raw := range segs {
		seg := strings.TrimSpace(raw)
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
		if strings.HasPrefix(seg, "#") {
			if i != 0 {
				return nil, fmt.Errorf("%w: id segment %q must come first", ErrInvalidPath, seg)
			}
			n := findUniqueID(root, seg[1:])
			if n == nil {
				return nil, fmt.Errorf("%w: %s", ErrDetached, seg)
			}
			cur = n
			continue
		}
		tag, nth, err := parseSegment(seg)
		if err != nil {
			return nil, err
		}
		next := nthOfType(cur, tag, nth)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrDetached, path)
		}
		cur = next
	}
	return cur, nil
}

func parseSegment(seg string) (string, int, error) {
	tag, num, found := strings.Cut(seg, ":")
	if tag == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidPath, seg)
	}
	if !found {
		return strings.ToLower(tag), 1, nil
	}
	nth, err := strconv.Atoi(num)
	if err != nil || nth < 1 {
		return "", 0, fmt.Errorf("%w: bad index in %q", ErrInvalidPath, seg)
	}
	return strings.ToLower(tag), nth, nil
}

func nthOfType(parent *html.Node, tag string, nth int) *html.Node {
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			count++
			if count == nth {
				return c
			}
		}
	}
	return nil
}

func idCounts(root *html.Node) map[string]int {
	ids := make(map[string]int)
	walkElements(root, func(n *html.Node) bool {
		if id := getAttr(n, "id"); id != "" {
			ids[id]++
		}
		return true
	})
	return ids
}

func findUniqueID(root *html.Node, id string) *html.Node {
	var found *html.Node
	count := 0
	walkElements(root, func(n *html.Node) bool {
		if getAttr(n, "id") == id {
			found = n
			count++
		}
		return count < 2
	})
	if count != 1 {
		return nil
	}
	return found
}

// walkElements visits element descendants of root in document order.
// Returning false from fn stops the walk.
func walkElements(root *html.Node, fn func(*html.Node) bool) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !fn(c) {
			return false
		}
		if !walkElements(c, fn) {
			return false
		}
	}
	return true
}
