package vcedit

import (
	"errors"
	"testing"
)

func TestDiffOps(t *testing.T) {
	tests := []struct {
		name      string
		oldHTML   string
		newHTML   string
		expectOps []OpType
	}{
		{
			name:      "Text change",
			oldHTML:   "<p>Hello</p>",
			newHTML:   "<p>Hello World</p>",
			expectOps: []OpType{OpUpdateText},
		},
		{
			name:      "Attribute removed",
			oldHTML:   `<p class="a" title="t">x</p>`,
			newHTML:   `<p class="a">x</p>`,
			expectOps: []OpType{OpRemoveAttr},
		},
		{
			name:      "Attribute added and changed",
			oldHTML:   `<p class="a">x</p>`,
			newHTML:   `<p class="b" id="i">x</p>`,
			expectOps: []OpType{OpUpdateAttr, OpUpdateAttr},
		},
		{
			name:      "Tag replaced",
			oldHTML:   "<div><p>a</p></div>",
			newHTML:   "<div><span>a</span></div>",
			expectOps: []OpType{OpDeleteNode, OpInsertNode},
		},
		{
			name:      "Children trimmed from the end",
			oldHTML:   "<ul><li>a</li><li>b</li><li>c</li></ul>",
			newHTML:   "<ul><li>a</li></ul>",
			expectOps: []OpType{OpDeleteNode, OpDeleteNode},
		},
		{
			name:      "Child appended",
			oldHTML:   "<ul><li>a</li></ul>",
			newHTML:   "<ul><li>a</li><li>b</li></ul>",
			expectOps: []OpType{OpInsertNode},
		},
		{
			name:      "Comment changed",
			oldHTML:   "<!-- a --><p></p>",
			newHTML:   "<!-- b --><p></p>",
			expectOps: []OpType{OpUpdateText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, err := Diff(HTMLAdapter{}, tt.oldHTML, tt.newHTML, "test")
			if err != nil {
				t.Fatalf("Diff failed: %v", err)
			}

			if len(delta.Operations) != len(tt.expectOps) {
				t.Errorf("Ops count mismatch. Want %d, Got %d", len(tt.expectOps), len(delta.Operations))
				for i, op := range delta.Operations {
					t.Logf("Op[%d]: %+v", i, op)
				}
				return
			}

			for i, op := range delta.Operations {
				if op.Type != tt.expectOps[i] {
					t.Errorf("Op[%d] type mismatch. Want %s, Got %s", i, tt.expectOps[i], op.Type)
				}
			}
		})
	}
}

func TestDiffSimple(t *testing.T) {
	tests := []struct {
		name    string
		oldHTML string
		newHTML string
		wantOps int
	}{
		{
			name:    "No changes",
			oldHTML: "<div><p>Hello</p></div>",
			newHTML: "<div><p>Hello</p></div>",
			wantOps: 0,
		},
		{
			name:    "Attribute change",
			oldHTML: `<div class="a"></div>`,
			newHTML: `<div class="b"></div>`,
			wantOps: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, err := Diff(HTMLAdapter{}, tt.oldHTML, tt.newHTML, "tester")
			if err != nil {
				t.Fatalf("Diff error: %v", err)
			}
			if len(delta.Operations) != tt.wantOps {
				t.Errorf("Want %d ops, got %d", tt.wantOps, len(delta.Operations))
			}
			if delta.BaseHash != hashString(tt.oldHTML) || delta.Author != "tester" {
				t.Errorf("delta header = %q by %q", delta.BaseHash, delta.Author)
			}
		})
	}
}

func TestDiffRootMismatch(t *testing.T) {
	_, err := Diff(HTMLAdapter{}, "<p>x</p>", "<!DOCTYPE html><html><body><p>x</p></body></html>", "test")
	if !errors.Is(err, ErrRootMismatch) {
		t.Errorf("error = %v, want ErrRootMismatch", err)
	}
}
