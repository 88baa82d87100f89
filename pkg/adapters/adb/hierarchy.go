package adb

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/ports"
)

type hierarchyXML struct {
	XMLName xml.Name  `xml:"hierarchy"`
	Nodes   []nodeXML `xml:"node"`
}

type nodeXML struct {
	Text        string    `xml:"text,attr"`
	ContentDesc string    `xml:"content-desc,attr"`
	Class       string    `xml:"class,attr"`
	Package     string    `xml:"package,attr"`
	Focusable   string    `xml:"focusable,attr"`
	Bounds      string    `xml:"bounds,attr"`
	Nodes       []nodeXML `xml:"node"`
}

// Bounds is a node's on-screen rectangle.
type Bounds struct {
	Left, Top, Right, Bottom int
}

// Center returns the middle point of the rectangle.
func (b Bounds) Center() (int, int) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

func parseBounds(s string) (Bounds, error) {
	var b Bounds
	if _, err := fmt.Sscanf(s, "[%d,%d][%d,%d]", &b.Left, &b.Top, &b.Right, &b.Bottom); err != nil {
		return Bounds{}, fmt.Errorf("invalid bounds %q: %w", s, err)
	}
	return b, nil
}

// Screen is one parsed hierarchy dump bound to the device it came from.
type Screen struct {
	client *Client
	root   *Element
	raw    []byte
}

// Element is a node of a parsed dump.
type Element struct {
	Text     string
	Class    string
	Package  string
	Bounds   Bounds
	Children []*Element
}

// ParseScreen parses uiautomator output. Leading and trailing noise around the
// XML document is ignored.
func ParseScreen(client *Client, data []byte) (*Screen, error) {
	doc := string(data)
	if i := strings.Index(doc, "<?xml"); i >= 0 {
		doc = doc[i:]
	} else if i := strings.Index(doc, "<hierarchy"); i >= 0 {
		doc = doc[i:]
	}
	if i := strings.LastIndex(doc, ">"); i >= 0 {
		doc = doc[:i+1]
	}

	var h hierarchyXML
	if err := xml.Unmarshal([]byte(doc), &h); err != nil {
		return nil, fmt.Errorf("failed to parse hierarchy (length: %d): %w", len(doc), err)
	}
	if len(h.Nodes) == 0 {
		return nil, fmt.Errorf("empty hierarchy")
	}

	var root *Element
	if len(h.Nodes) == 1 {
		root = convert(h.Nodes[0])
	} else {
		root = &Element{Class: "android.view.View", Package: h.Nodes[0].Package}
		for _, n := range h.Nodes {
			root.Children = append(root.Children, convert(n))
		}
	}
	return &Screen{client: client, root: root, raw: []byte(doc)}, nil
}

func convert(n nodeXML) *Element {
	el := &Element{
		Text:    n.Text,
		Class:   n.Class,
		Package: n.Package,
	}
	if el.Text == "" && isButtonClass(n.Class) {
		el.Text = n.ContentDesc
	}
	if b, err := parseBounds(n.Bounds); err == nil {
		el.Bounds = b
	}
	for _, c := range n.Nodes {
		el.Children = append(el.Children, convert(c))
	}
	return el
}

func isButtonClass(class string) bool {
	return strings.HasSuffix(class, "Button")
}

// Package returns the owning package of the top window.
func (s *Screen) Package() string {
	return s.root.Package
}

// Root returns a handle to the top node.
func (s *Screen) Root() ports.Node {
	return &node{screen: s, el: s.root}
}

// Raw returns the cleaned XML the screen was parsed from.
func (s *Screen) Raw() []byte {
	return s.raw
}

// node implements ports.Node over a dumped element. Dumps are snapshots, so a
// handle owns no device resource and Release is a no-op.
type node struct {
	screen *Screen
	el     *Element
}

func (n *node) Label() string   { return n.el.Text }
func (n *node) Role() string    { return n.el.Class }
func (n *node) Owner() string   { return n.el.Package }
func (n *node) Editable() bool  { return strings.Contains(n.el.Class, "EditText") }
func (n *node) ChildCount() int { return len(n.el.Children) }
func (n *node) Release()        {}
func (n *node) Bounds() Bounds  { return n.el.Bounds }

func (n *node) Child(i int) (ports.Node, bool) {
	if i < 0 || i >= len(n.el.Children) {
		return nil, false
	}
	return &node{screen: n.screen, el: n.el.Children[i]}, true
}

// SetText focuses the field, clears what the dump showed in it and types text.
func (n *node) SetText(ctx context.Context, text string) error {
	c := n.screen.client
	x, y := n.el.Bounds.Center()
	if err := c.Tap(ctx, x, y); err != nil {
		return fmt.Errorf("focus field: %w", err)
	}
	if err := c.DeleteChars(ctx, len([]rune(n.el.Text))); err != nil {
		return fmt.Errorf("clear field: %w", err)
	}
	if err := c.InputText(ctx, text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	n.el.Text = text
	return nil
}

// Activate taps the node's center.
func (n *node) Activate(ctx context.Context) error {
	x, y := n.el.Bounds.Center()
	return n.screen.client.Tap(ctx, x, y)
}
