package vcedit

import (
	"fmt"
	"strings"
)

// Modifiers is a bit set of keyboard modifiers held during an event.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
	ModMeta
)

// ModNone means no modifier is held.
const ModNone Modifiers = 0

// Has reports whether all bits of m are set.
func (mods Modifiers) Has(m Modifiers) bool {
	return m != ModNone && mods&m == m
}

// String returns a "+"-joined list such as "shift+alt".
func (mods Modifiers) String() string {
	var parts []string
	for _, m := range []Modifiers{ModShift, ModAlt, ModCtrl, ModMeta} {
		if mods.Has(m) {
			parts = append(parts, modifierNames[m])
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

var modifierNames = map[Modifiers]string{
	ModShift: "shift",
	ModAlt:   "alt",
	ModCtrl:  "ctrl",
	ModMeta:  "meta",
}

// ParseModifier maps a configured modifier name to its bit.
func ParseModifier(name string) (Modifiers, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shift":
		return ModShift, nil
	case "alt", "option":
		return ModAlt, nil
	case "ctrl", "control":
		return ModCtrl, nil
	case "meta", "cmd", "command", "super":
		return ModMeta, nil
	}
	return ModNone, fmt.Errorf("unknown modifier %q", name)
}

// Button represents a pointer button.
type Button uint8

const (
	// ButtonPrimary is the main (left) button.
	ButtonPrimary Button = iota
	// ButtonAuxiliary is the middle button.
	ButtonAuxiliary
	// ButtonSecondary is the context-menu (right) button.
	ButtonSecondary
)

// String returns a string representation of the button.
func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonAuxiliary:
		return "auxiliary"
	case ButtonSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// PointerEvent is a pointer input in surface coordinates.
type PointerEvent struct {
	Pos       Point
	Button    Button
	Modifiers Modifiers
}

// Key names understood by the controller. Printable keys use their
// lower-case character.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// KeyEvent is a key press.
type KeyEvent struct {
	Key       string
	Modifiers Modifiers
}

func (k KeyEvent) primary() bool {
	return k.Modifiers.Has(ModCtrl) || k.Modifiers.Has(ModMeta)
}
