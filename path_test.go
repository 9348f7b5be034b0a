package vcedit

import (
	"errors"
	"testing"
)

const pathFixture = `<div id="main"><ul><li>a</li><li>b</li></ul></div><p>x</p><p id="dup">y</p><p id="dup">z</p>`

func TestElementPath(t *testing.T) {
	root, err := HTMLAdapter{}.Parse(pathFixture)
	if err != nil {
		t.Fatal(err)
	}
	main := root.FirstChild
	ul := main.FirstChild
	ps := elementChildren(root)[1:]

	tests := []struct {
		name string
		path string
		want string
	}{
		{"unique id", "#main", "#main"},
		{"below unique id", "#main > ul > li:2", "#main > ul > li:2"},
		{"single of type", "#main > ul", "#main > ul"},
		{"nth of type", "p:1", "p:1"},
		{"duplicate id falls back to position", "p:3", "p:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ResolvePath(root, tt.path)
			if err != nil {
				t.Fatalf("ResolvePath(%q): %v", tt.path, err)
			}
			got, err := ElementPath(root, n)
			if err != nil {
				t.Fatalf("ElementPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("ElementPath = %q, want %q", got, tt.want)
			}
		})
	}

	if n, _ := ResolvePath(root, "#main > ul"); n != ul {
		t.Errorf("#main > ul resolved to the wrong node")
	}
	if n, _ := ResolvePath(root, "p:3"); n != ps[2] || textContent(n) != "z" {
		t.Errorf("p:3 resolved to the wrong node")
	}
	if n, _ := ResolvePath(root, ""); n != root {
		t.Errorf("empty path should resolve to the root")
	}
}

func TestResolvePathErrors(t *testing.T) {
	root, err := HTMLAdapter{}.Parse(pathFixture)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want error
	}{
		{"li:0", ErrInvalidPath},
		{"li:x", ErrInvalidPath},
		{"#main > > ul", ErrInvalidPath},
		{"#main > #main", ErrInvalidPath},
		{"#missing", ErrDetached},
		{"#dup", ErrDetached},
		{"#main > ul > li:3", ErrDetached},
		{"table", ErrDetached},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := ResolvePath(root, tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("ResolvePath(%q) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
}

func TestElementPathDetached(t *testing.T) {
	root, _ := HTMLAdapter{}.Parse(`<div><p>a</p></div>`)
	p := root.FirstChild.FirstChild
	root.FirstChild.RemoveChild(p)
	if _, err := ElementPath(root, p); !errors.Is(err, ErrDetached) {
		t.Errorf("ElementPath of a removed node: err = %v, want ErrDetached", err)
	}
}
