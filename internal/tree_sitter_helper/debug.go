package treesitterhelper

import (
	"fmt"
	"io"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// PrintAllNodes writes the named nodes below node, one per line, indented by
// depth. Leaf nodes also print their text.
func PrintAllNodes(w io.Writer, node *tree_sitter.Node, content []byte, indent string) {
	printNode(w, node, "", content, indent)
}

func printNode(w io.Writer, node *tree_sitter.Node, field string, content []byte, indent string) {
	label := node.Kind()
	if field != "" {
		label = field + ": " + label
	}
	if node.NamedChildCount() == 0 {
		text := strings.ReplaceAll(node.Utf8Text(content), "\n", "\\n")
		_, _ = fmt.Fprintf(w, "%s%s %q [%d:%d]\n", indent, label, text, node.StartPosition().Row+1, node.StartPosition().Column)
	} else {
		_, _ = fmt.Fprintf(w, "%s%s [%d:%d]\n", indent, label, node.StartPosition().Row+1, node.StartPosition().Column)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() {
			continue
		}
		printNode(w, child, node.FieldNameForChild(uint32(i)), content, indent+"  ")
	}
}
