package project

import (
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// declarationKinds bind the name in their `name` field
var declarationKinds = []string{
	"function_declaration",
	"generator_function_declaration",
	"class_declaration",
	"abstract_class_declaration",
	"type_alias_declaration",
	"interface_declaration",
	"enum_declaration",
}

var varDeclarationPattern = treesitterhelper.NodeKind("variable_declaration")

// ResolveLocally finds the declaration a name refers to at ctx. Scopes are
// walked outward from ctx; declarations are hoisted within their scope.
// Imported names are followed into the imported module. The result is nil
// when the name is unbound or its import cannot be resolved.
func (p *Project) ResolveLocally(name string, ctx *source.Node) *source.Node {
	if name == "" || ctx == nil {
		return nil
	}

	for scope := ctx; scope != nil; scope = scope.Parent() {
		if decl, found := p.lookupInScope(name, scope); found {
			return decl
		}
	}

	// script blocks of a single-file component share one module scope
	file := ctx.File()
	if file != nil && len(file.Scripts) > 1 {
		for _, script := range file.Scripts {
			if script == ctx.Script() {
				continue
			}
			if decl, found := p.lookupInScope(name, script.Root()); found {
				return decl
			}
		}
	}

	return nil
}

// lookupInScope checks the bindings a single scope node introduces. found
// is true when the scope binds the name, even if the binding cannot be
// followed (e.g. an unresolvable import).
func (p *Project) lookupInScope(name string, scope *source.Node) (*source.Node, bool) {
	switch scope.Kind() {
	case "program":
		if decl := statementsBinding(name, scope); decl != nil {
			return decl, true
		}
		if decl := hoistedVar(name, scope); decl != nil {
			return decl, true
		}
		return p.importBinding(name, scope)
	case "statement_block", "class_static_block", "switch_body":
		if decl := statementsBinding(name, scope); decl != nil {
			return decl, true
		}
		if isFunction(scope.Parent()) {
			if decl := hoistedVar(name, scope); decl != nil {
				return decl, true
			}
		}
	case "function_declaration", "function_expression", "function", "arrow_function",
		"generator_function", "generator_function_declaration", "method_definition":
		if decl := parameterBinding(name, scope); decl != nil {
			return decl, true
		}
		if scope.Is("function_expression", "function", "generator_function") && scope.Field("name").Text() == name {
			return scope, true
		}
	case "for_statement":
		if decl := declarationBinding(name, scope.Field("initializer")); decl != nil {
			return decl, true
		}
	case "for_in_statement":
		if scope.Field("kind") == nil {
			break
		}
		if decl := patternBinding(name, scope.Field("left")); decl != nil {
			return decl, true
		}
	case "catch_clause":
		if decl := patternBinding(name, scope.Field("parameter")); decl != nil {
			return decl, true
		}
	case "class_declaration", "class":
		if scope.Field("name").Text() == name {
			return scope, true
		}
	}
	return nil, false
}

// statementsBinding looks at the direct statements of a block
func statementsBinding(name string, block *source.Node) *source.Node {
	for _, stmt := range block.NamedChildren() {
		if stmt.Is("export_statement") {
			if decl := stmt.Field("declaration"); decl != nil {
				stmt = decl
			} else if value := stmt.Field("value"); value != nil && value.Is("function_expression", "class") {
				// export default function name() {}
				if value.Field("name").Text() == name {
					return value
				}
				continue
			}
		}
		if decl := declarationBinding(name, stmt); decl != nil {
			return decl
		}
	}
	return nil
}

// declarationBinding checks one declaration statement
func declarationBinding(name string, stmt *source.Node) *source.Node {
	switch {
	case stmt.Is("lexical_declaration", "variable_declaration"):
		for _, declarator := range stmt.NamedChildren() {
			if !declarator.Is("variable_declarator") {
				continue
			}
			target := declarator.Field("name")
			if target.Is("identifier") {
				if target.Text() == name {
					return declarator
				}
				continue
			}
			if decl := patternBinding(name, target); decl != nil {
				return decl
			}
		}
	case stmt.Is(declarationKinds...):
		if stmt.Field("name").Text() == name {
			return stmt
		}
	case stmt.Is("ambient_declaration"):
		for _, inner := range stmt.NamedChildren() {
			if decl := declarationBinding(name, inner); decl != nil {
				return decl
			}
		}
	}
	return nil
}

// hoistedVar finds `var` declarations nested in blocks of a function body
// or program, without entering nested functions
func hoistedVar(name string, body *source.Node) *source.Node {
	for _, ts := range treesitterhelper.FindAllOutside(body.TS(), varDeclarationPattern, treesitterhelper.JSFunctionPattern, body.Content()) {
		if decl := declarationBinding(name, body.Wrap(ts)); decl != nil {
			return decl
		}
	}
	return nil
}

func parameterBinding(name string, fn *source.Node) *source.Node {
	if param := fn.Field("parameter"); param != nil {
		if param.Text() == name {
			return param
		}
		return nil
	}
	for _, param := range fn.Field("parameters").NamedChildren() {
		switch param.Kind() {
		case "required_parameter", "optional_parameter":
			pattern := param.Field("pattern")
			if pattern.Is("identifier") && pattern.Text() == name {
				return param
			}
			if decl := patternBinding(name, pattern); decl != nil {
				return decl
			}
		default:
			if decl := patternBinding(name, param); decl != nil {
				return decl
			}
		}
	}
	return nil
}

// patternBinding finds the node binding name inside a destructuring
// pattern. Shorthand bindings return the shorthand node; other bindings
// return the bound identifier.
func patternBinding(name string, pattern *source.Node) *source.Node {
	switch pattern.Kind() {
	case "identifier":
		if pattern.Text() == name {
			return pattern
		}
	case "shorthand_property_identifier_pattern":
		if pattern.Text() == name {
			return pattern
		}
	case "object_pattern", "array_pattern":
		for _, child := range pattern.NamedChildren() {
			if decl := patternBinding(name, child); decl != nil {
				return decl
			}
		}
	case "pair_pattern":
		return patternBinding(name, pattern.Field("value"))
	case "object_assignment_pattern", "assignment_pattern":
		return patternBinding(name, pattern.Field("left"))
	case "rest_pattern":
		if inner := pattern.NamedChild(0); inner != nil {
			return patternBinding(name, inner)
		}
	}
	return nil
}

func isFunction(node *source.Node) bool {
	return treesitterhelper.IsFunction(node.TS())
}
