package ports

import "context"

// Node is a handle onto one element of the host's on-screen hierarchy.
//
// Handles are a finite host resource. Every handle obtained from Child, or
// delivered inside an Event, must be released exactly once by whoever holds it.
type Node interface {
	// Label is the visible text of the node, empty when it has none.
	Label() string

	// Role is the class/role tag (e.g. "android.widget.Button").
	Role() string

	// Owner is the identifier of the surface (package) that owns the node.
	Owner() string

	// Editable reports whether the node accepts text edits.
	Editable() bool

	// ChildCount returns the number of direct children.
	ChildCount() int

	// Child acquires a handle to the i-th child. It returns false when the
	// child is no longer available; no handle is acquired in that case.
	Child(i int) (Node, bool)

	// SetText replaces the node's text content.
	SetText(ctx context.Context, text string) error

	// Activate performs the node's primary action (click).
	Activate(ctx context.Context) error

	// Release returns the handle to the host.
	Release()
}
