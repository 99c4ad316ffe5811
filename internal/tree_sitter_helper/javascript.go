package treesitterhelper

import (
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Node kinds of JavaScript/TypeScript trees that the resolver inspects in
// more than one place.
const (
	KindObject      = "object"
	KindArray       = "array"
	KindString      = "string"
	KindCall        = "call_expression"
	KindIdentifier  = "identifier"
	KindMember      = "member_expression"
	KindSubscript   = "subscript_expression"
	KindProgram     = "program"
	KindPair        = "pair"
	KindMethod      = "method_definition"
	KindShorthand   = "shorthand_property_identifier"
	KindSpread      = "spread_element"
	KindArrow       = "arrow_function"
	KindReturn      = "return_statement"
	KindStatementBl = "statement_block"
)

// FunctionKinds are the node kinds whose value is a callable.
var FunctionKinds = []string{
	"arrow_function",
	"function_expression",
	"function",
	"function_declaration",
	"generator_function",
	"generator_function_declaration",
	"method_definition",
}

// JSFunctionPattern matches any function-like node
var JSFunctionPattern = AnyNodeKind(FunctionKinds...)

// IsFunction reports whether the node is a function-like node
func IsFunction(node *tree_sitter.Node) bool {
	return node != nil && slices.Contains(FunctionKinds, node.Kind())
}

// JSCallToPattern matches call expressions whose callee text is one of names.
// Both plain calls (defineProps(...)) and member calls (app.component(...))
// are matched on their full callee text.
//
// Example: JSCallToPattern("defineProps")
//
//	const props = defineProps<{ a: string }>()
//	              ^^^^^^^^^^^^^^^^^^^^^^^^^^^^ matches
func JSCallToPattern(names ...string) Pattern {
	return And(
		NodeKind(KindCall),
		FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
			callee := node.ChildByFieldName("function")
			if callee == nil {
				return false
			}
			return slices.Contains(names, callee.Utf8Text(content))
		}),
	)
}

// JSMethodCallPattern matches member calls whose property name is one of
// methods, regardless of the receiver.
//
// Example: JSMethodCallPattern("component")
//
//	app.component('my-button', MyButton)
//	Vue.component('my-button', { ... })
func JSMethodCallPattern(methods ...string) Pattern {
	return And(
		NodeKind(KindCall),
		FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
			callee := node.ChildByFieldName("function")
			if callee == nil || callee.Kind() != KindMember {
				return false
			}
			property := callee.ChildByFieldName("property")
			if property == nil {
				return false
			}
			return slices.Contains(methods, property.Utf8Text(content))
		}),
	)
}

// JSExportDefaultPattern matches `export default ...` statements
var JSExportDefaultPattern = And(
	NodeKind("export_statement"),
	FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
		return GetFirstNodeOfKind(node, "default") != nil
	}),
)

// Arguments returns the argument nodes of a call expression, skipping
// punctuation and comments.
func Arguments(call *tree_sitter.Node) []*tree_sitter.Node {
	if call == nil {
		return nil
	}
	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil
	}

	var args []*tree_sitter.Node
	for i := uint(0); i < argsNode.NamedChildCount(); i++ {
		child := argsNode.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		args = append(args, child)
	}
	return args
}

// TypeArguments returns the type argument nodes of a call expression
// (TypeScript only).
func TypeArguments(call *tree_sitter.Node) []*tree_sitter.Node {
	if call == nil {
		return nil
	}
	typeArgs := call.ChildByFieldName("type_arguments")
	if typeArgs == nil {
		typeArgs = GetFirstNodeOfKind(call, "type_arguments")
	}
	if typeArgs == nil {
		return nil
	}

	var args []*tree_sitter.Node
	for i := uint(0); i < typeArgs.NamedChildCount(); i++ {
		args = append(args, typeArgs.NamedChild(i))
	}
	return args
}

// StringContent extracts the unquoted content of a string node
func StringContent(node *tree_sitter.Node, content []byte) string {
	var b strings.Builder
	found := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "string_fragment", "escape_sequence":
			b.WriteString(child.Utf8Text(content))
			found = true
		}
	}
	if found {
		return b.String()
	}
	// Empty string or a grammar without fragments
	return Unquote(node.Utf8Text(content))
}

// Unquote strips one level of matching quotes or backticks
func Unquote(text string) string {
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return text[1 : len(text)-1]
		}
	}
	return text
}

// IsStringLiteral reports whether the node is a plain string or a template
// string without substitutions
func IsStringLiteral(node *tree_sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case KindString:
		return true
	case "template_string":
		return GetFirstNodeOfKind(node, "template_substitution") == nil
	}
	return false
}

// PropertyKeyName returns the name of a pair or method key: identifiers and
// string/number keys give their text; computed keys give the inner
// expression text (e.g. `[FooKey]` gives "FooKey").
func PropertyKeyName(key *tree_sitter.Node, content []byte) string {
	if key == nil {
		return ""
	}
	switch key.Kind() {
	case KindString:
		return StringContent(key, content)
	case "computed_property_name":
		if key.NamedChildCount() > 0 {
			inner := key.NamedChild(0)
			if IsStringLiteral(inner) {
				return StringContent(inner, content)
			}
			return inner.Utf8Text(content)
		}
		return ""
	default:
		return key.Utf8Text(content)
	}
}

// UnwrapExpression strips parentheses, TypeScript assertions and non-null
// markers around an expression.
func UnwrapExpression(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "parenthesized_expression", "non_null_expression":
			if node.NamedChildCount() == 0 {
				return node
			}
			node = node.NamedChild(0)
		case "as_expression", "satisfies_expression", "type_assertion":
			if node.NamedChildCount() == 0 {
				return node
			}
			// the expression is the first named child for `x as T`, the
			// last one for the `<T>x` assertion form
			if node.Kind() == "type_assertion" {
				node = node.NamedChild(node.NamedChildCount() - 1)
			} else {
				node = node.NamedChild(0)
			}
		default:
			return node
		}
	}
	return nil
}
