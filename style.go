package vcedit

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/net/html"
)

// LayoutRole classifies how a node participates in layout.
type LayoutRole uint8

const (
	RoleInline LayoutRole = iota
	RoleBlock
	RoleFlex
	RoleGrid
	RoleNone
)

// String returns a string representation of the role.
func (r LayoutRole) String() string {
	switch r {
	case RoleBlock:
		return "block"
	case RoleFlex:
		return "flex"
	case RoleGrid:
		return "grid"
	case RoleNone:
		return "none"
	default:
		return "inline"
	}
}

// Edges holds a four-sided box value in px.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Style is the effective visual state of a node as reported by a resolver.
type Style struct {
	Role     LayoutRole
	Display  string
	Position string
	// Offset is the positional offset (left, top) used by free moves.
	Offset Point

	Margin  Edges
	Padding Edges

	Color         colorful.Color
	HasColor      bool
	Background    colorful.Color
	HasBackground bool

	FontFamily string
	FontSize   float64
	FontWeight string
}

// StyleResolver returns the effective visual properties of a node. The
// core treats it as read-only.
type StyleResolver interface {
	Resolve(n *html.Node) Style
}

// StyleResolverFunc adapts a function to StyleResolver.
type StyleResolverFunc func(n *html.Node) Style

// Resolve calls f(n).
func (f StyleResolverFunc) Resolve(n *html.Node) Style { return f(n) }

// InlineStyleResolver resolves styles from the inline style attribute and
// tag defaults. It is what the editor uses when no layout engine is wired.
type InlineStyleResolver struct{}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "dd": true, "details": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "ul": true,
}

// Resolve implements StyleResolver.
func (InlineStyleResolver) Resolve(n *html.Node) Style {
	var st Style
	if n == nil || n.Type != html.ElementNode {
		return st
	}
	decls := parseDeclarations(getAttr(n, "style"))

	st.Display, _ = decls.get("display")
	st.Role = roleFor(n.Data, st.Display)
	st.Position, _ = decls.get("position")
	if v, ok := decls.get("left"); ok {
		st.Offset.X, _ = parsePx(v)
	}
	if v, ok := decls.get("top"); ok {
		st.Offset.Y, _ = parsePx(v)
	}
	st.Margin = edgesFrom(decls, "margin")
	st.Padding = edgesFrom(decls, "padding")

	if v, ok := decls.get("color"); ok {
		st.Color, st.HasColor = parseColor(v)
	}
	if v, ok := decls.get("background-color"); ok {
		st.Background, st.HasBackground = parseColor(v)
	} else if v, ok := decls.get("background"); ok {
		st.Background, st.HasBackground = parseColor(v)
	}

	st.FontFamily, _ = decls.get("font-family")
	st.FontWeight, _ = decls.get("font-weight")
	if v, ok := decls.get("font-size"); ok {
		st.FontSize, _ = parsePx(v)
	}
	return st
}

func roleFor(tag, display string) LayoutRole {
	switch strings.ToLower(display) {
	case "block", "list-item", "table":
		return RoleBlock
	case "flex", "inline-flex":
		return RoleFlex
	case "grid", "inline-grid":
		return RoleGrid
	case "none":
		return RoleNone
	case "inline", "inline-block":
		return RoleInline
	}
	if blockTags[tag] {
		return RoleBlock
	}
	return RoleInline
}

// edgesFrom reads a shorthand ("margin: 1px 2px") and then its longhands.
func edgesFrom(decls declarations, prop string) Edges {
	var e Edges
	if v, ok := decls.get(prop); ok {
		var vals []float64
		for _, f := range strings.Fields(v) {
			px, _ := parsePx(f)
			vals = append(vals, px)
		}
		switch len(vals) {
		case 1:
			e = Edges{vals[0], vals[0], vals[0], vals[0]}
		case 2:
			e = Edges{vals[0], vals[1], vals[0], vals[1]}
		case 3:
			e = Edges{vals[0], vals[1], vals[2], vals[1]}
		case 4:
			e = Edges{vals[0], vals[1], vals[2], vals[3]}
		}
	}
	sides := []struct {
		name string
		dst  *float64
	}{
		{"top", &e.Top}, {"right", &e.Right}, {"bottom", &e.Bottom}, {"left", &e.Left},
	}
	for _, s := range sides {
		if v, ok := decls.get(prop + "-" + s.name); ok {
			*s.dst, _ = parsePx(v)
		}
	}
	return e
}

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"gray":    "#808080",
	"grey":    "#808080",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"silver":  "#c0c0c0",
	"navy":    "#000080",
	"teal":    "#008080",
	"maroon":  "#800000",
	"olive":   "#808000",
	"fuchsia": "#ff00ff",
	"aqua":    "#00ffff",
}

// parseColor understands hex (#rgb, #rrggbb), rgb()/rgba() and a few names.
func parseColor(v string) (colorful.Color, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if hex, ok := namedColors[v]; ok {
		v = hex
	}
	if strings.HasPrefix(v, "#") {
		if len(v) == 4 {
			v = "#" + strings.Repeat(v[1:2], 2) + strings.Repeat(v[2:3], 2) + strings.Repeat(v[3:4], 2)
		}
		c, err := colorful.Hex(v)
		if err != nil {
			return colorful.Color{}, false
		}
		return c, true
	}
	inner, ok := strings.CutPrefix(v, "rgba(")
	if !ok {
		inner, ok = strings.CutPrefix(v, "rgb(")
	}
	if !ok || !strings.HasSuffix(inner, ")") {
		return colorful.Color{}, false
	}
	parts := strings.FieldsFunc(strings.TrimSuffix(inner, ")"), func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 {
		return colorful.Color{}, false
	}
	var rgb [3]float64
	for i := range rgb {
		f, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return colorful.Color{}, false
		}
		rgb[i] = f / 255
	}
	return colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}.Clamped(), true
}
