package vcedit

import (
	"testing"
)

func TestProvisionalAttributes(t *testing.T) {
	meta := metadata{prefix: DefaultMetadataPrefix}
	root, err := HTMLAdapter{}.Parse(`<img src="a.png" alt="x"><p>t</p>`)
	if err != nil {
		t.Fatal(err)
	}
	img, p := root.FirstChild, root.LastChild

	meta.setProvisional(img, "src", "blob:1")
	meta.setProvisional(img, "src", "blob:2")
	meta.setProvisional(p, "contenteditable", "true")

	if got := getAttr(img, "src"); got != "blob:2" {
		t.Errorf("live src = %q, want blob:2", got)
	}
	if got := getAttr(img, meta.origKey("src")); got != "a.png" {
		t.Errorf("original src = %q, want a.png", got)
	}

	out, err := HTMLAdapter{}.Serialize(meta.cleanClone(root))
	if err != nil {
		t.Fatal(err)
	}
	if want := `<img src="a.png" alt="x"/><p>t</p>`; out != want {
		t.Errorf("clean output.\nWant: %s\nGot:  %s", want, out)
	}
	if getAttr(img, "src") != "blob:2" {
		t.Errorf("cleaning a clone touched the live node")
	}

	meta.restore(p, "contenteditable")
	if _, ok := lookupAttr(p, "contenteditable"); ok {
		t.Errorf("restoring an added key should remove it")
	}
	if _, ok := lookupAttr(p, meta.addedKey()); ok {
		t.Errorf("added list should be gone once empty")
	}

	meta.restore(img, "src")
	if getAttr(img, "src") != "a.png" || meta.isProvisional(img, "src") {
		t.Errorf("restore did not put back the original src")
	}
}

func TestProvisionalRealEdit(t *testing.T) {
	meta := metadata{prefix: DefaultMetadataPrefix}
	root, _ := HTMLAdapter{}.Parse(`<img src="a.png">`)
	img := root.FirstChild
	meta.setProvisional(img, "src", "blob:1")

	tx := newTx(root, meta)
	if err := tx.SetAttr(img, "src", "b.png"); err != nil {
		t.Fatal(err)
	}
	ops := tx.Ops()
	if len(ops) != 1 || ops[0].OldValue != "a.png" || ops[0].NewValue != "b.png" {
		t.Errorf("op should record the original value, got %+v", ops)
	}

	out, _ := HTMLAdapter{}.Serialize(meta.cleanClone(root))
	if want := `<img src="b.png"/>`; out != want {
		t.Errorf("a real edit must survive cleaning.\nWant: %s\nGot:  %s", want, out)
	}
}

func TestDeclarations(t *testing.T) {
	tests := []struct {
		name  string
		style string
		prop  string
		value string
		want  string
	}{
		{"append", "color: red", "left", "4px", "color: red; left: 4px"},
		{"replace in place", "left: 1px; color: red", "LEFT", "2px", "left: 2px; color: red"},
		{"remove", "left: 1px; color: red", "left", "", "color: red"},
		{"collapse duplicates", "left: 1px; left: 3px;", "left", "5px", "left: 5px"},
		{"ignore junk", " ; nonsense ; top:0", "top", "1px", "top: 1px"},
		{
			"data url keeps its semicolon",
			"background-image: url(data:image/png;base64,AAAA); color: red", "color", "blue",
			"background-image: url(data:image/png;base64,AAAA); color: blue",
		},
		{
			"quoted url and string",
			`background: url("a;b.png") no-repeat; content: "x: y;z"`, "left", "1px",
			`background: url("a;b.png") no-repeat; content: "x: y;z"; left: 1px`,
		},
		{
			"function arguments",
			"font-family: a, b; grid-template-columns: repeat(2, minmax(0, 1fr))", "font-family", "",
			"grid-template-columns: repeat(2, minmax(0, 1fr))",
		},
		{"custom property keeps case", "--Accent: #fff", "top", "0", "--Accent: #fff; top: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDeclarations(tt.style).set(tt.prop, tt.value).String()
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDeclarationsValues(t *testing.T) {
	decls := parseDeclarations(`content: "a;b"; /* note */ background: url(data:image/svg+xml;utf8,x); Color: RED`)
	want := declarations{
		{prop: "content", value: `"a;b"`},
		{prop: "background", value: "url(data:image/svg+xml;utf8,x)"},
		{prop: "color", value: "RED"},
	}
	if len(decls) != len(want) {
		t.Fatalf("got %d declarations: %+v", len(decls), decls)
	}
	for i := range want {
		if decls[i] != want[i] {
			t.Errorf("declaration %d = %+v, want %+v", i, decls[i], want[i])
		}
	}
	if v, ok := decls.get("background"); !ok || v != "url(data:image/svg+xml;utf8,x)" {
		t.Errorf("get(background) = %q, %v", v, ok)
	}
}

func TestOffsetStyle(t *testing.T) {
	tests := []struct {
		style string
		off   Point
		want  string
	}{
		{"", Point{12, -8}, "position: relative; left: 12px; top: -8px"},
		{"color: red; position: absolute", Point{1.5, 0}, "color: red; position: absolute; left: 1.5px; top: 0px"},
		{"position: static; left: 3px", Point{4, 5}, "position: relative; left: 4px; top: 5px"},
		{
			"background: url(data:image/png;base64,AAAA)", Point{1, 2},
			"background: url(data:image/png;base64,AAAA); position: relative; left: 1px; top: 2px",
		},
	}
	for _, tt := range tests {
		if got := offsetStyle(tt.style, tt.off); got != tt.want {
			t.Errorf("offsetStyle(%q, %v) = %q, want %q", tt.style, tt.off, got, tt.want)
		}
	}
}
