package vcedit

import (
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

// DefaultMetadataPrefix marks editor-only attributes. Attributes with this
// prefix never reach serialized output.
const DefaultMetadataPrefix = "data-vc-"

// metadata rewrites attributes for display and undoes the rewrite on output.
//
// For a provisional attribute "src" the original value lives in
// "<prefix>orig-src". Keys that had no original value are listed in
// "<prefix>added".
type metadata struct {
	prefix string
}

func (m metadata) origKey(key string) string { return m.prefix + "orig-" + key }
func (m metadata) addedKey() string          { return m.prefix + "added" }

func (m metadata) isMeta(key string) bool {
	return strings.HasPrefix(key, m.prefix)
}

// setProvisional sets key to display on n, remembering the original value
// the first time the key is rewritten.
func (m metadata) setProvisional(n *html.Node, key, display string) {
	if !m.isProvisional(n, key) {
		if orig, ok := lookupAttr(n, key); ok {
			setAttr(n, m.origKey(key), orig)
		} else {
			added := strings.Fields(getAttr(n, m.addedKey()))
			setAttr(n, m.addedKey(), strings.Join(append(added, key), " "))
		}
	}
	setAttr(n, key, display)
}

func (m metadata) isProvisional(n *html.Node, key string) bool {
	if _, ok := lookupAttr(n, m.origKey(key)); ok {
		return true
	}
	for _, k := range strings.Fields(getAttr(n, m.addedKey())) {
		if k == key {
			return true
		}
	}
	return false
}

// restore puts back the original value of a provisional key.
func (m metadata) restore(n *html.Node, key string) {
	if orig, ok := lookupAttr(n, m.origKey(key)); ok {
		setAttr(n, key, orig)
		removeAttr(n, m.origKey(key))
		return
	}
	if m.forget(n, key) {
		removeAttr(n, key)
	}
}

// forget drops the provisional marker for key and keeps the current value.
// It reports whether key was listed as added.
func (m metadata) forget(n *html.Node, key string) bool {
	if removeAttr(n, m.origKey(key)) {
		return false
	}
	added := strings.Fields(getAttr(n, m.addedKey()))
	kept := added[:0]
	found := false
	for _, k := range added {
		if k == key {
			found = true
			continue
		}
		kept = append(kept, k)
	}
	if !found {
		return false
	}
	if len(kept) == 0 {
		removeAttr(n, m.addedKey())
	} else {
		setAttr(n, m.addedKey(), strings.Join(kept, " "))
	}
	return true
}

// clean restores every provisional attribute below and including n and
// strips all editor-only attributes. It is applied to clones only.
func (m metadata) clean(n *html.Node) {
	if n.Type == html.ElementNode && len(n.Attr) > 0 {
		for _, key := range strings.Fields(getAttr(n, m.addedKey())) {
			removeAttr(n, key)
		}
		var kept []html.Attribute
		origs := make(map[string]string)
		for _, a := range n.Attr {
			if !m.isMeta(a.Key) {
				kept = append(kept, a)
				continue
			}
			if key, ok := strings.CutPrefix(a.Key, m.prefix+"orig-"); ok {
				origs[key] = a.Val
			}
		}
		for i, a := range kept {
			if v, ok := origs[a.Key]; ok {
				kept[i].Val = v
				delete(origs, a.Key)
			}
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		m.clean(c)
	}
}

// cleanClone returns a detached copy of n fit for output.
func (m metadata) cleanClone(n *html.Node) *html.Node {
	c := cloneNode(n)
	m.clean(c)
	return c
}

// declaration is one "property: value" pair of an inline style.
type declaration struct {
	prop  string
	value string
}

// declarations is an order-preserving inline style.
type declarations []declaration

// parseDeclarations tokenizes an inline style. Semicolons and colons only
// separate declarations at nesting depth zero, so strings, url() tokens and
// function arguments keep their contents. Parts without a colon are dropped.
func parseDeclarations(style string) declarations {
	var decls declarations
	var prop, value strings.Builder
	inValue, depth := false, 0
	flush := func() {
		name := strings.TrimSpace(prop.String())
		if !strings.HasPrefix(name, "--") {
			name = strings.ToLower(name)
		}
		if inValue && name != "" {
			decls = append(decls, declaration{prop: name, value: strings.TrimSpace(value.String())})
		}
		prop.Reset()
		value.Reset()
		inValue = false
	}

	l := css.NewLexer(parse.NewInputString(style))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return decls
		case css.CommentToken:
			continue
		case css.SemicolonToken:
			if depth == 0 {
				flush()
				continue
			}
		case css.ColonToken:
			if depth == 0 && !inValue {
				inValue = true
				continue
			}
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		}
		if inValue {
			value.Write(data)
		} else {
			prop.Write(data)
		}
	}
}

func (d declarations) get(prop string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].prop == prop {
			return d[i].value, true
		}
	}
	return "", false
}

// set replaces the value of prop in place, or appends it. An empty value
// removes the property.
func (d declarations) set(prop, value string) declarations {
	prop = strings.ToLower(strings.TrimSpace(prop))
	value = strings.TrimSpace(value)
	out := d[:0:0]
	replaced := false
	for _, decl := range d {
		if decl.prop != prop {
			out = append(out, decl)
			continue
		}
		if !replaced && value != "" {
			out = append(out, declaration{prop: prop, value: value})
			replaced = true
		}
	}
	if !replaced && value != "" {
		out = append(out, declaration{prop: prop, value: value})
	}
	return out
}

func (d declarations) String() string {
	parts := make([]string, len(d))
	for i, decl := range d {
		parts[i] = decl.prop + ": " + decl.value
	}
	return strings.Join(parts, "; ")
}

// parsePx reads a length such as "12px" or "-3.5". Other units are not
// offsets this engine writes and read as absent.
func parsePx(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatPx(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "px"
}
