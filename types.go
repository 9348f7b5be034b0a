package vcedit

import "math"

// NodePath represents the traversal steps from the root to a target node.
// Example: [0, 1, 3] means root -> child[0] -> child[1] -> child[3]
type NodePath []int

type OpType string

const (
	OpInsertNode OpType = "INSERT_NODE" // Insert a new node
	OpDeleteNode OpType = "DELETE_NODE" // Remove a node
	OpMoveNode   OpType = "MOVE_NODE"   // Reparent or reorder a node
	OpUpdateAttr OpType = "UPDATE_ATTR" // Change/Add an attribute
	OpRemoveAttr OpType = "REMOVE_ATTR" // Remove an attribute
	OpUpdateText OpType = "UPDATE_TEXT" // Replace full text (Atomic)
)

// Operation represents an atomic change to the HTML structure.
type Operation struct {
	Type     OpType   `json:"type"`
	Path     NodePath `json:"path"`
	Target   NodePath `json:"target,omitempty"`    // For MoveNode: the new parent, addressed after removal
	Key      string   `json:"key,omitempty"`       // For Attributes (name of the attribute)
	OldValue string   `json:"old_value,omitempty"` // Previous value
	NewValue string   `json:"new_value,omitempty"` // New value/Content
	NodeData string   `json:"node_data,omitempty"` // For Insert: The HTML string of the node
	Position int      `json:"position,omitempty"`  // For InsertNode/MoveNode: child index
}

// Delta represents a set of changes applied to a base document.
type Delta struct {
	BaseHash   string      `json:"base_hash,omitempty"` // Hash of the original document, checked by Patch when set
	Operations []Operation `json:"operations"`
	Timestamp  int64       `json:"timestamp"`
	Author     string      `json:"author"`
}

// Change is published to document-changed listeners after every
// committed mutation.
type Change struct {
	Label string
	// Ops are relative to the live root as it was when each op ran.
	Ops []Operation
	// Reload is set when the whole tree was replaced (load, undo, redo).
	Reload bool
}

// Point is a position in render-surface coordinates.
type Point struct {
	X float64
	Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Distance returns the euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned box in surface coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// MidY returns the vertical midpoint.
func (r Rect) MidY() float64 {
	return r.Y + r.H/2
}
