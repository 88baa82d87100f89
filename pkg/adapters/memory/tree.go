package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ussdpilot/pkg/ports"
)

// NodeSpec declares one node of a synthetic tree.
type NodeSpec struct {
	Label    string     `yaml:"label,omitempty" json:"label,omitempty"`
	Role     string     `yaml:"role,omitempty" json:"role,omitempty"`
	Owner    string     `yaml:"owner,omitempty" json:"owner,omitempty"`
	Editable bool       `yaml:"editable,omitempty" json:"editable,omitempty"`
	Gone     bool       `yaml:"gone,omitempty" json:"gone,omitempty"` // Child() fails for this node
	Children []NodeSpec `yaml:"children,omitempty" json:"children,omitempty"`
}

// ActionKind names a mutation performed against the tree.
type ActionKind string

const (
	ActionSetText  ActionKind = "set_text"
	ActionActivate ActionKind = "activate"
)

// Action records one mutation, in the order it happened.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Role  string     `json:"role"`
	Label string     `json:"label"`
	Text  string     `json:"text,omitempty"`
}

type element struct {
	label    string
	role     string
	owner    string
	editable bool
	gone     bool
	children []*element
}

// Tree is an in-memory node hierarchy that accounts for every handle it hands out.
type Tree struct {
	mu       sync.Mutex
	root     *element
	acquired int
	released int
	doubles  int
	actions  []Action
	failWith error
}

// NewTree builds a tree from spec. Nodes without an owner inherit their parent's.
func NewTree(spec NodeSpec) *Tree {
	return &Tree{root: build(spec, "")}
}

func build(spec NodeSpec, parentOwner string) *element {
	owner := spec.Owner
	if owner == "" {
		owner = parentOwner
	}
	el := &element{
		label:    spec.Label,
		role:     spec.Role,
		owner:    owner,
		editable: spec.Editable,
		gone:     spec.Gone,
	}
	for _, c := range spec.Children {
		el.children = append(el.children, build(c, owner))
	}
	return el
}

// Root acquires a handle to the root node.
func (t *Tree) Root() ports.Node {
	return t.acquire(t.root)
}

// FailActions makes every SetText and Activate return err (nil restores success).
func (t *Tree) FailActions(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failWith = err
}

// Outstanding returns the number of handles acquired but not yet released.
func (t *Tree) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acquired - t.released
}

// Acquired returns the total number of handles handed out.
func (t *Tree) Acquired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acquired
}

// DoubleReleases returns how many times an already released handle was released again.
func (t *Tree) DoubleReleases() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doubles
}

// Actions returns a copy of the recorded mutations.
func (t *Tree) Actions() []Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Action(nil), t.actions...)
}

func (t *Tree) acquire(el *element) *handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acquired++
	return &handle{tree: t, el: el}
}

// handle is one acquired reference to an element.
type handle struct {
	tree     *Tree
	el       *element
	released bool
}

func (h *handle) Label() string {
	h.tree.mu.Lock()
	defer h.tree.mu.Unlock()
	return h.el.label
}

func (h *handle) Role() string   { return h.el.role }
func (h *handle) Owner() string  { return h.el.owner }
func (h *handle) Editable() bool { return h.el.editable }

func (h *handle) ChildCount() int { return len(h.el.children) }

func (h *handle) Child(i int) (ports.Node, bool) {
	if i < 0 || i >= len(h.el.children) || h.el.children[i].gone {
		return nil, false
	}
	return h.tree.acquire(h.el.children[i]), true
}

func (h *handle) SetText(ctx context.Context, text string) error {
	t := h.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failWith != nil {
		return t.failWith
	}
	t.actions = append(t.actions, Action{Kind: ActionSetText, Role: h.el.role, Label: h.el.label, Text: text})
	h.el.label = text
	return nil
}

func (h *handle) Activate(ctx context.Context) error {
	t := h.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failWith != nil {
		return t.failWith
	}
	t.actions = append(t.actions, Action{Kind: ActionActivate, Role: h.el.role, Label: h.el.label})
	return nil
}

func (h *handle) Release() {
	t := h.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if h.released {
		t.doubles++
		return
	}
	h.released = true
	t.released++
}
