package treesitterhelper

import (
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pattern defines a pattern that can be matched against a tree-sitter node
type Pattern interface {
	Matches(node *tree_sitter.Node, content []byte) bool
}

// FuncPattern adapts a predicate to a Pattern
func FuncPattern(matchFunc func(node *tree_sitter.Node, content []byte) bool) Pattern {
	return funcPattern(matchFunc)
}

type funcPattern func(node *tree_sitter.Node, content []byte) bool

func (p funcPattern) Matches(node *tree_sitter.Node, content []byte) bool {
	return node != nil && p(node, content)
}

// And matches when every pattern matches
func And(patterns ...Pattern) Pattern {
	return funcPattern(func(node *tree_sitter.Node, content []byte) bool {
		for _, pattern := range patterns {
			if !pattern.Matches(node, content) {
				return false
			}
		}
		return true
	})
}

// Or matches when any pattern matches
func Or(patterns ...Pattern) Pattern {
	return funcPattern(func(node *tree_sitter.Node, content []byte) bool {
		for _, pattern := range patterns {
			if pattern.Matches(node, content) {
				return true
			}
		}
		return false
	})
}

func Not(pattern Pattern) Pattern {
	return funcPattern(func(node *tree_sitter.Node, content []byte) bool {
		return !pattern.Matches(node, content)
	})
}

// NodeKind matches a node's kind
func NodeKind(kind string) Pattern {
	return funcPattern(func(node *tree_sitter.Node, _ []byte) bool {
		return node.Kind() == kind
	})
}

// AnyNodeKind matches any of the node kinds
func AnyNodeKind(kinds ...string) Pattern {
	return funcPattern(func(node *tree_sitter.Node, _ []byte) bool {
		return slices.Contains(kinds, node.Kind())
	})
}

// NodeText matches a node's exact source text
func NodeText(text string) Pattern {
	return funcPattern(func(node *tree_sitter.Node, content []byte) bool {
		return node.Utf8Text(content) == text
	})
}

// HasChild matches a node with a named child matching pattern
func HasChild(pattern Pattern) Pattern {
	return funcPattern(func(node *tree_sitter.Node, content []byte) bool {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if pattern.Matches(node.NamedChild(i), content) {
				return true
			}
		}
		return false
	})
}

// FindFirst returns the first node in pre-order matching pattern
func FindFirst(root *tree_sitter.Node, pattern Pattern, content []byte) *tree_sitter.Node {
	if root == nil {
		return nil
	}
	if pattern.Matches(root, content) {
		return root
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		if result := FindFirst(root.NamedChild(i), pattern, content); result != nil {
			return result
		}
	}
	return nil
}

// FindAll returns every node matching pattern in pre-order
func FindAll(root *tree_sitter.Node, pattern Pattern, content []byte) []*tree_sitter.Node {
	return FindAllOutside(root, pattern, nil, content)
}

// FindAllOutside finds all nodes matching pattern without descending into
// nodes matching boundary. The root itself is never treated as a boundary.
func FindAllOutside(root *tree_sitter.Node, pattern, boundary Pattern, content []byte) []*tree_sitter.Node {
	var results []*tree_sitter.Node

	var visit func(node *tree_sitter.Node, isRoot bool)
	visit = func(node *tree_sitter.Node, isRoot bool) {
		if !isRoot && boundary != nil && boundary.Matches(node, content) {
			return
		}
		if pattern.Matches(node, content) {
			results = append(results, node)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			visit(node.NamedChild(i), false)
		}
	}

	if root != nil {
		visit(root, true)
	}
	return results
}

// GetFirstNodeOfKind returns the first direct child of the given kind
func GetFirstNodeOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}
