package component

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopware/vuemodel/internal/naming"
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
	"github.com/shopware/vuemodel/internal/types"
)

// binding is a name declared at the top level of a setup block
type binding struct {
	name string
	// node declares the binding: an import specifier, a declarator, a
	// function or class declaration
	node *source.Node
	// imported bindings are resolved through their module
	imported bool
}

// scriptSetup extracts the members of a <script setup> program: macros,
// local components and directives, and the remaining top-level bindings.
// Macros run last so exposed bindings keep their reference wrappers.
func (x *extractor) scriptSetup(program *source.Node, members *Members) {
	for _, b := range topLevelBindings(program) {
		if name, ok := x.directiveName(b.name); ok {
			m := newMember(name, b.node)
			m.Value = x.bindingValue(b, program)
			members.Add(SectionDirectives, m)
			continue
		}

		if target := x.bindingValue(b, program); target != nil && x.localComponent(b, target) {
			m := newMember(b.name, b.node)
			m.Value = target
			members.Add(SectionComponents, m)
			continue
		}

		if b.imported || isMacroResult(b.node) {
			continue
		}
		t := types.Unwrap(x.host.InferType(b.node))
		m := newMember(b.name, b.node)
		m.Value = b.node.DeclaredValue()
		m.Type = t
		members.Add(bindingSection(t), m)
	}

	x.macros(program, members)
}

// setupFunction extracts the members of an options setup() function:
// macros called in its body and the bindings of its returned object
func (x *extractor) setupFunction(fn *source.Node, members *Members) {
	if body := fn.Field("body"); body != nil {
		x.macros(body, members)
	}

	t := x.host.InferType(fn)
	if !t.IsFunction() {
		return
	}
	for _, tm := range returnedMembers(t.Return) {
		unwrapped := types.Unwrap(tm.Type)
		m := newMember(tm.Name, tm.Node)
		m.Type = unwrapped
		members.Add(bindingSection(unwrapped), m)
	}
}

// returnedMembers lists the record members of a return type; the members
// of every record alternative of a union are merged
func returnedMembers(t *types.Type) []types.Member {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.Record:
		return t.Members
	case types.Union:
		var result []types.Member
		for _, e := range t.Elems {
			for _, m := range returnedMembers(e) {
				if !slices.ContainsFunc(result, func(r types.Member) bool { return r.Name == m.Name }) {
					result = append(result, m)
				}
			}
		}
		return result
	}
	return nil
}

// topLevelBindings lists the names a program declares, in source order
func topLevelBindings(program *source.Node) []binding {
	var result []binding
	for _, stmt := range program.NamedChildren() {
		switch stmt.Kind() {
		case "import_statement":
			if isTypeOnlyImport(stmt) {
				continue
			}
			for _, local := range importedNames(stmt) {
				result = append(result, binding{name: local.Text(), node: local, imported: true})
			}
		case "lexical_declaration", "variable_declaration":
			for _, declarator := range stmt.NamedChildren() {
				if !declarator.Is("variable_declarator") {
					continue
				}
				if name := declarator.Field("name"); name.Is(treesitterhelper.KindIdentifier) {
					result = append(result, binding{name: name.Text(), node: declarator})
				}
			}
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := stmt.Field("name"); name != nil {
				result = append(result, binding{name: name.Text(), node: stmt})
			}
		}
	}
	return result
}

func isTypeOnlyImport(stmt *source.Node) bool {
	return stmt.HasChild("type") || stmt.HasChild("typeof")
}

// importedNames returns the local name nodes an import statement binds,
// skipping namespace imports and type-only specifiers
func importedNames(stmt *source.Node) []*source.Node {
	var names []*source.Node
	for _, clause := range stmt.Child("import_clause").NamedChildren() {
		switch clause.Kind() {
		case treesitterhelper.KindIdentifier:
			names = append(names, clause)
		case "named_imports":
			for _, spec := range clause.NamedChildren() {
				if !spec.Is("import_specifier") || spec.HasChild("type") {
					continue
				}
				local := spec.Field("alias")
				if local == nil {
					local = spec.Field("name")
				}
				names = append(names, local)
			}
		}
	}
	return names
}

// bindingValue resolves a binding to the node it is bound to
func (x *extractor) bindingValue(b binding, program *source.Node) *source.Node {
	if b.imported {
		return x.host.ResolveLocally(b.name, program)
	}
	if value := b.node.DeclaredValue(); value != nil {
		return value
	}
	return b.node
}

// directiveName recognizes local directives: `vFocus` registers `focus`
func (x *extractor) directiveName(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, x.directivePrefix)
	if !ok || rest == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return "", false
	}
	return naming.ToCamel(naming.ToKebab(rest)), true
}

// localComponent reports whether a setup binding holding target can be
// used as a component tag. Imports count whatever their case. Any object
// literal classifies as options, so a plain local literal only counts
// under a PascalCase name.
func (x *extractor) localComponent(b binding, target *source.Node) bool {
	desc := x.classify(target)
	if desc == nil {
		return false
	}
	if b.imported || isComponentName(b.name) {
		return true
	}
	lit, ok := desc.Declaration.(OptionsLiteral)
	return !ok || lit.Call != nil
}

// isComponentName reports whether a local binding is named like a
// component tag
func isComponentName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// isMacroResult reports whether a declarator holds the result of a
// compile-time macro rather than a template binding
func isMacroResult(node *source.Node) bool {
	if !node.Is("variable_declarator") {
		return false
	}
	value := unwrap(node.Field("value"))
	if !value.Is(treesitterhelper.KindCall) {
		return false
	}
	return slices.Contains(bindingMacros, value.Field("function").Text())
}
