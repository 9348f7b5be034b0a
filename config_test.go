package vcedit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
		check  func(t *testing.T, c Config)
	}{
		{
			name:   "yaml",
			format: "yaml",
			data: `history_capacity: 10
commit_debounce_ms: 250
free_move_modifier: ctrl
reserved_tags: [script, style]
`,
			check: func(t *testing.T, c Config) {
				if c.HistoryCapacity != 10 || c.CommitDebounce() != 250*time.Millisecond {
					t.Errorf("capacity=%d debounce=%s", c.HistoryCapacity, c.CommitDebounce())
				}
				if c.freeMove() != ModCtrl || c.multiSelect() != ModShift {
					t.Errorf("modifiers = %s / %s", c.freeMove(), c.multiSelect())
				}
				if len(c.ReservedTags) != 2 || c.DragThreshold != 5 {
					t.Errorf("reserved=%v threshold=%v", c.ReservedTags, c.DragThreshold)
				}
			},
		},
		{
			name:   "toml",
			format: "toml",
			data: `drag_threshold = 8.5
multi_select_modifier = "meta"
metadata_prefix = "data-ed-"
`,
			check: func(t *testing.T, c Config) {
				if c.DragThreshold != 8.5 || c.multiSelect() != ModMeta || c.MetadataPrefix != "data-ed-" {
					t.Errorf("config = %+v", c)
				}
				if c.HistoryCapacity != 50 || c.CommitDebounceMS != 500 {
					t.Errorf("defaults lost: %+v", c)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseConfig([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{"same modifiers", "yaml", "multi_select_modifier: alt\n"},
		{"unknown modifier", "toml", `free_move_modifier = "hyper"`},
		{"negative debounce", "yaml", "commit_debounce_ms: -1\n"},
		{"bad yaml", "yaml", "history_capacity: [\n"},
		{"unknown format", "json", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data), tt.format); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if c.HistoryCapacity != 50 {
		t.Errorf("missing file should give defaults")
	}

	path := filepath.Join(dir, "editor.toml")
	if err := os.WriteFile(path, []byte("history_capacity = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.HistoryCapacity != 7 {
		t.Errorf("HistoryCapacity = %d, want 7", c.HistoryCapacity)
	}

	ed, err := New(WithConfig(c))
	if err != nil {
		t.Fatal(err)
	}
	if ed.Config().HistoryCapacity != 7 {
		t.Errorf("editor ignored the config")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FreeMoveModifier = cfg.MultiSelectModifier
	if _, err := New(WithConfig(cfg)); err == nil {
		t.Errorf("New should reject clashing modifiers")
	}
}
