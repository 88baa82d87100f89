package uitree

import (
	"slices"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Scanner recognises the dialog and extracts its text and controls.
type Scanner struct {
	owners      []string
	roleMarkers []string
	buttonRoles []string
}

// NewScanner creates a scanner for the given profile.
func NewScanner(profile domain.DialogProfile) *Scanner {
	return &Scanner{
		owners:      slices.Clone(profile.Owners),
		roleMarkers: slices.Clone(profile.RoleMarkers),
		buttonRoles: slices.Clone(profile.ButtonRoles),
	}
}

// IsDialog reports whether root belongs to the structured-menu dialog, judged
// by its owning surface or its role tag.
func (s *Scanner) IsDialog(root ports.Node) bool {
	return containsAny(root.Owner(), s.owners) || containsAny(root.Role(), s.roleMarkers)
}

// ExtractText concatenates every non-empty label in pre-order, each followed by
// a single space.
func (s *Scanner) ExtractText(root ports.Node) string {
	var b strings.Builder
	appendLabel := func(n ports.Node) bool {
		if label := n.Label(); label != "" {
			b.WriteString(label)
			b.WriteByte(' ')
		}
		return false
	}
	appendLabel(root)
	walk(root, appendLabel)
	return b.String()
}

// Discover collects editable fields and buttons in traversal order.
// The caller must Release the returned Controls.
func (s *Scanner) Discover(root ports.Node) *Controls {
	c := &Controls{}
	var held []ports.Node
	c.Fields, held = collect(root, ports.Node.Editable)
	c.held = append(c.held, held...)
	c.Buttons, held = collect(root, s.isButton)
	c.held = append(c.held, held...)
	return c
}

func (s *Scanner) isButton(n ports.Node) bool {
	return slices.Contains(s.buttonRoles, n.Role())
}

// Controls are the actionable nodes found under a dialog root.
type Controls struct {
	Fields  []ports.Node
	Buttons []ports.Node

	// held are the handles acquired on the caller's behalf; the root is never among them.
	held []ports.Node
}

// Release returns every handle acquired by Discover. It is safe to call twice.
func (c *Controls) Release() {
	for _, n := range c.held {
		n.Release()
	}
	c.held = nil
	c.Fields = nil
	c.Buttons = nil
}

// collect returns the nodes under root (root included) matching pred. held
// lists the matching handles acquired during the walk.
func collect(root ports.Node, pred func(ports.Node) bool) (matches, held []ports.Node) {
	if pred(root) {
		matches = append(matches, root)
	}
	walk(root, func(n ports.Node) bool {
		if !pred(n) {
			return false
		}
		matches = append(matches, n)
		held = append(held, n)
		return true
	})
	return matches, held
}

// walk visits the descendants of n in pre-order. visit reports whether it keeps
// the handle; handles not kept are released once their subtree is done.
func walk(n ports.Node, visit func(ports.Node) bool) {
	for i := 0; i < n.ChildCount(); i++ {
		child, ok := n.Child(i)
		if !ok {
			continue
		}
		descend(child, visit)
	}
}

func descend(child ports.Node, visit func(ports.Node) bool) {
	keep := false
	defer func() {
		if !keep {
			child.Release()
		}
	}()
	keep = visit(child)
	walk(child, visit)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
