package vcedit

import "errors"

// Errors reported by the document store. The interaction layer swallows
// them; store-level callers can match them with errors.Is.
var (
	// ErrDetached means a node or path no longer addresses the live tree.
	ErrDetached = errors.New("node is not attached to the document")
	// ErrInvalidPath means a path string could not be parsed.
	ErrInvalidPath = errors.New("invalid node path")
	// ErrNotEditable means the node is document metadata or structure.
	ErrNotEditable = errors.New("node is not editable")
	// ErrNotContainer means the node cannot hold dropped children.
	ErrNotContainer = errors.New("node is not a container")
	// ErrCycle means a node would become its own ancestor.
	ErrCycle = errors.New("node cannot be moved into itself or a descendant")
	// ErrRootMismatch means two trees have incompatible roots.
	ErrRootMismatch = errors.New("document roots differ")
	// ErrNoDocument means nothing has been loaded yet.
	ErrNoDocument = errors.New("no document loaded")
)
