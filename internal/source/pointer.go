package source

import (
	"slices"
	"strings"
)

// Pointer is a re-resolvable reference to a value derived from a node. It
// survives re-parses: when the node it was made from is stale, Deref looks
// the node up again by identity and recomputes the value.
type Pointer[T any] struct {
	ID        NodeID
	node      *Node
	value     T
	recompute func(*Node) (T, bool)
}

// NewPointer creates a pointer to a value computed from node
func NewPointer[T any](node *Node, value T, recompute func(*Node) (T, bool)) Pointer[T] {
	return Pointer[T]{
		ID:        node.ID(),
		node:      node,
		value:     value,
		recompute: recompute,
	}
}

// Deref returns the pointed-to value. lookup resolves a NodeID against the
// current project state.
func (p *Pointer[T]) Deref(lookup func(NodeID) *Node) (T, bool) {
	if p.node.Valid() {
		return p.value, true
	}

	var zero T
	if lookup == nil || p.recompute == nil {
		return zero, false
	}
	node := lookup(p.ID)
	if node == nil {
		return zero, false
	}
	value, ok := p.recompute(node)
	if !ok {
		return zero, false
	}
	p.node = node
	p.value = value
	return value, true
}

// Scope is the set of files a registration query looks at
type Scope struct {
	paths []string
}

// ProjectScope covers every file of the project
func ProjectScope() Scope {
	return Scope{}
}

// FilesScope covers exactly the given paths
func FilesScope(paths ...string) Scope {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if sorted == nil {
		sorted = []string{}
	}
	return Scope{paths: sorted}
}

// IsProject reports whether the scope covers every file
func (s Scope) IsProject() bool {
	return s.paths == nil
}

// Contains reports whether path is part of the scope
func (s Scope) Contains(path string) bool {
	if s.paths == nil {
		return true
	}
	_, found := slices.BinarySearch(s.paths, path)
	return found
}

// Paths returns the explicit paths of a file scope
func (s Scope) Paths() []string {
	return s.paths
}

// Key is a stable cache key for the scope
func (s Scope) Key() string {
	if s.paths == nil {
		return "project"
	}
	return "files:" + strings.Join(s.paths, "|")
}
