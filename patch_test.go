package vcedit

import (
	"strings"
	"testing"
)

func TestPatchRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		oldHTML string
		newHTML string
	}{
		{
			name:    "Text change",
			oldHTML: "<div><p>Hello</p></div>",
			newHTML: "<div><p>World</p></div>",
		},
		{
			name:    "Attribute change",
			oldHTML: `<div class="a"></div>`,
			newHTML: `<div class="b"></div>`,
		},
		{
			name:    "Attribute removal",
			oldHTML: `<div class="a" hidden></div>`,
			newHTML: `<div class="a"></div>`,
		},
		{
			name:    "Insert node",
			oldHTML: `<ul><li>A</li></ul>`,
			newHTML: `<ul><li>A</li><li>B</li></ul>`,
		},
		{
			name:    "Delete node",
			oldHTML: `<ul><li>A</li><li>B</li></ul>`,
			newHTML: `<ul><li>A</li></ul>`,
		},
		{
			name:    "Tag replaced",
			oldHTML: `<div><p>a</p><p>b</p></div>`,
			newHTML: `<div><h1>a</h1><p>b</p></div>`,
		},
		{
			name:    "Table context",
			oldHTML: `<table><tbody><tr><td>1</td></tr></tbody></table>`,
			newHTML: `<table><tbody><tr><td>1</td></tr><tr><td>2</td></tr></tbody></table>`,
		},
		{
			name:    "Complex structural change",
			oldHTML: `<div id="main"><h1>Title</h1><p>Text</p></div>`,
			newHTML: `<div id="main"><h1>New Title</h1><p>Text</p><p>Footer</p></div>`,
		},
		{
			name:    "Full document",
			oldHTML: `<!DOCTYPE html><html><head></head><body><p>a</p></body></html>`,
			newHTML: `<!DOCTYPE html><html><head><title>t</title></head><body><p class="x">b</p></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, err := Diff(HTMLAdapter{}, tt.oldHTML, tt.newHTML, "tester")
			if err != nil {
				t.Fatalf("Diff() error = %v", err)
			}

			patched, err := Patch(HTMLAdapter{}, tt.oldHTML, delta)
			if err != nil {
				t.Fatalf("Patch() error = %v", err)
			}

			// Compare normalized markup: quoting and implied tags may differ.
			var a HTMLAdapter
			wantDoc, _ := a.Parse(tt.newHTML)
			wantStr, _ := a.Serialize(wantDoc)

			if patched != wantStr {
				t.Errorf("RoundTrip failed.\nWant: %s\nGot:  %s", wantStr, patched)
				for i, op := range delta.Operations {
					t.Logf("Op[%d]: %+v", i, op)
				}
			}
		})
	}
}

func TestPatchBaseHashMismatch(t *testing.T) {
	delta, err := Diff(HTMLAdapter{}, "<p>a</p>", "<p>b</p>", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Patch(HTMLAdapter{}, "<p>c</p>", delta); err == nil || !strings.Contains(err.Error(), "base hash mismatch") {
		t.Errorf("error = %v, want base hash mismatch", err)
	}
}

func TestPatchFailsAtomically(t *testing.T) {
	delta := &Delta{Operations: []Operation{
		{Type: OpUpdateAttr, Path: NodePath{0}, Key: "class", NewValue: "x"},
		{Type: OpDeleteNode, Path: NodePath{7}},
	}}
	_, err := Patch(HTMLAdapter{}, "<p>a</p>", delta)
	if err == nil || !strings.Contains(err.Error(), "failed to apply op 1") {
		t.Errorf("error = %v", err)
	}
}

// Changes published by a live document replay onto its earlier markup.
func TestPatchReplaysDocumentChanges(t *testing.T) {
	const base = `<div id="a"><p>1</p><p>2</p></div><section><b>x</b></section>`
	d := newTestDocument(t, base)
	var ops []Operation
	d.onChange = func(c Change) { ops = append(ops, c.Ops...) }

	div := mustLookup(t, d, "#a")
	section := mustLookup(t, d, "section")
	err := d.Mutate("mixed", func(tx *Tx) error {
		if err := tx.Move(div.FirstChild, section, section.FirstChild); err != nil {
			return err
		}
		if err := tx.Move(section, div, div.FirstChild); err != nil {
			return err
		}
		if err := tx.SetAttr(div, "class", "c"); err != nil {
			return err
		}
		if err := tx.SetText(section.FirstChild, "one"); err != nil {
			return err
		}
		return tx.Insert(div, cloneNode(section.LastChild), nil)
	})
	if err != nil {
		t.Fatal(err)
	}

	patched, err := Patch(HTMLAdapter{}, base, &Delta{Operations: ops})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if want := mustSerialize(t, d); patched != want {
		t.Errorf("replay mismatch.\nWant: %s\nGot:  %s", want, patched)
	}
}
