package source

import (
	"fmt"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeID is the stable identity of a declaration node. Two parses of the
// same text produce equal ids.
type NodeID struct {
	Path  string
	Block int
	Start uint
	End   uint
	Kind  string
}

// IsZero reports whether the id is unset
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

func (id NodeID) String() string {
	return fmt.Sprintf("%s#%d:%d-%d:%s", id.Path, id.Block, id.Start, id.End, id.Kind)
}

// ParseNodeID parses the String form of a NodeID
func ParseNodeID(s string) (NodeID, error) {
	hash := strings.LastIndex(s, "#")
	if hash < 0 {
		return NodeID{}, fmt.Errorf("invalid node id %q: missing block", s)
	}
	rest := strings.SplitN(s[hash+1:], ":", 3)
	if len(rest) != 3 {
		return NodeID{}, fmt.Errorf("invalid node id %q", s)
	}
	block, err := strconv.Atoi(rest[0])
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	start, end, ok := strings.Cut(rest[1], "-")
	if !ok {
		return NodeID{}, fmt.Errorf("invalid node id %q: missing range", s)
	}
	startByte, err := strconv.ParseUint(start, 10, 64)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	endByte, err := strconv.ParseUint(end, 10, 64)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	return NodeID{
		Path:  s[:hash],
		Block: block,
		Start: uint(startByte),
		End:   uint(endByte),
		Kind:  rest[2],
	}, nil
}

// Node is a declaration node: a tree-sitter node together with the script
// block it belongs to. All methods are safe on a nil *Node.
type Node struct {
	script *Script
	ts     *tree_sitter.Node
}

// Wrap binds a tree-sitter node to its script block
func Wrap(script *Script, ts *tree_sitter.Node) *Node {
	if script == nil || ts == nil {
		return nil
	}
	return &Node{script: script, ts: ts}
}

// Wrap binds another tree-sitter node of the same block
func (n *Node) Wrap(ts *tree_sitter.Node) *Node {
	if n == nil {
		return nil
	}
	return Wrap(n.script, ts)
}

// TS returns the underlying tree-sitter node
func (n *Node) TS() *tree_sitter.Node {
	if n == nil {
		return nil
	}
	return n.ts
}

// Script returns the block containing the node
func (n *Node) Script() *Script {
	if n == nil {
		return nil
	}
	return n.script
}

// File returns the file containing the node
func (n *Node) File() *File {
	if n == nil {
		return nil
	}
	return n.script.file
}

// Path returns the path of the containing file
func (n *Node) Path() string {
	if f := n.File(); f != nil {
		return f.Path
	}
	return ""
}

// Content returns the source of the containing block
func (n *Node) Content() []byte {
	if n == nil {
		return nil
	}
	return n.script.Content
}

func (n *Node) ID() NodeID {
	if n == nil {
		return NodeID{}
	}
	return NodeID{
		Path:  n.Path(),
		Block: n.script.Index,
		Start: n.ts.StartByte(),
		End:   n.ts.EndByte(),
		Kind:  n.ts.Kind(),
	}
}

// Valid reports whether the containing file has not been replaced
func (n *Node) Valid() bool {
	return n != nil && n.File().Valid()
}

func (n *Node) Kind() string {
	if n == nil {
		return ""
	}
	return n.ts.Kind()
}

// Is reports whether the node has one of the given kinds
func (n *Node) Is(kinds ...string) bool {
	if n == nil {
		return false
	}
	kind := n.ts.Kind()
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.ts.Utf8Text(n.script.Content)
}

// Field returns the child stored under a grammar field name
func (n *Node) Field(name string) *Node {
	if n == nil {
		return nil
	}
	return n.Wrap(n.ts.ChildByFieldName(name))
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.Wrap(n.ts.Parent())
}

// NamedChildren returns the named children, skipping comments
func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	children := make([]*Node, 0, n.ts.NamedChildCount())
	for i := uint(0); i < n.ts.NamedChildCount(); i++ {
		child := n.ts.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		children = append(children, n.Wrap(child))
	}
	return children
}

// NamedChild returns the i-th named child
func (n *Node) NamedChild(i int) *Node {
	if n == nil || i < 0 || uint(i) >= n.ts.NamedChildCount() {
		return nil
	}
	return n.Wrap(n.ts.NamedChild(uint(i)))
}

// Child returns the first direct child of the given kind, named or not
func (n *Node) Child(kind string) *Node {
	if n == nil {
		return nil
	}
	for i := uint(0); i < n.ts.ChildCount(); i++ {
		child := n.ts.Child(i)
		if child.Kind() == kind {
			return n.Wrap(child)
		}
	}
	return nil
}

// HasChild reports whether a direct child (named or anonymous) has the kind
func (n *Node) HasChild(kind string) bool {
	return n.Child(kind) != nil
}

// Ancestor returns the closest ancestor with one of the given kinds
func (n *Node) Ancestor(kinds ...string) *Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// Line returns the 1-based line of the node within its file
func (n *Node) Line() int {
	if n == nil {
		return 0
	}
	return n.script.StartLine + int(n.ts.StartPosition().Row) + 1
}

// Same reports whether both nodes have the same identity
func (n *Node) Same(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.ID() == other.ID()
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.ID().String()
}

// DeclaredValue returns the value a declaration binds: the initializer of a
// variable declarator, or the declaration itself for functions and classes.
// Export wrappers and plain expressions are returned unchanged.
func (n *Node) DeclaredValue() *Node {
	switch n.Kind() {
	case "variable_declarator", "public_field_definition", "field_definition":
		return n.Field("value")
	case "":
		return nil
	}
	return n
}
