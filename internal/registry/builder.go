package registry

import (
	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/naming"
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// maxIterationDepth bounds the walk from a loop variable to its loop
const maxIterationDepth = 6

// iterationMethods iterate a collection with a callback
var iterationMethods = []string{"forEach", "map"}

// collectionCalls turn an object into an iterable of its entries
var collectionCalls = []string{"Object.entries", "Object.values", "Object.keys"}

// builder collects the registrations of one kind
type builder struct {
	model *component.Model
	host  component.Host
	index *Index
}

func newBuilder(model *component.Model, kind Kind) *builder {
	return &builder{model: model, host: model.Host(), index: newIndex(kind)}
}

func (b *builder) kind() Kind {
	return b.index.kind
}

// registration reads one registration call:
//
//	app.component('my-button', MyButton)             // single
//	app.component(MyButton)                          // named by its definition
//	Component.register('sw-page', () => import('./page'))
//	for (const k in all) app.component(k, all[k])    // group
func (b *builder) registration(call *source.Node) {
	args := treesitterhelper.Arguments(call.TS())
	if len(args) == 0 {
		return
	}
	first := unwrap(call.Wrap(args[0]))
	value := call.Wrap(args[len(args)-1])

	if group := b.groupSource(value); group != nil {
		b.group(group, call, make(map[source.NodeID]bool))
		return
	}

	if !treesitterhelper.IsStringLiteral(first.TS()) {
		if len(args) == 1 {
			b.single("", value, call)
		}
		return
	}
	if len(args) == 1 {
		// app.component('name') reads a registration
		return
	}
	b.single(treesitterhelper.StringContent(first.TS(), first.Content()), value, call)
}

// single adds a registration of one value. A literal carrying a `name`
// property is registered under that name.
func (b *builder) single(name string, value, site *source.Node) {
	resolved := b.resolveTarget(value)
	entry := Entry{
		Name:     name,
		Kind:     b.kind(),
		Value:    resolved,
		Site:     site,
		Global:   b.kind() != KindMixin,
		Indirect: isReference(value) || (resolved != nil && !resolved.Same(unwrap(value))),
	}
	if resolved == nil {
		entry.Value = value
	}

	if b.kind() == KindComponent || b.kind() == KindMixin {
		entry.Target = b.model.ResolveComponent(entry.Value)
		if canonical := literalName(b.host, resolved); canonical != "" && b.kind() == KindComponent {
			entry.Name = canonical
		}
		if entry.Name == "" && entry.Target != nil {
			entry.Name = entry.Target.DisplayName()
		}
	}
	b.index.add(entry)
}

// group registers every property of a collection under its own
// kebab-cased name
func (b *builder) group(collection, site *source.Node, visited map[source.NodeID]bool) {
	if visited[collection.ID()] {
		return
	}
	visited[collection.ID()] = true

	switch collection.Kind() {
	case treesitterhelper.KindObject:
		for _, m := range component.ObjectMembers(b.host, collection) {
			b.groupMember(m.Name, m.Value, site)
		}
	case treesitterhelper.KindProgram:
		for _, name := range exportNames(collection) {
			target := b.host.ResolveQualifiedName([]string{collection.Path(), name}, collection)
			b.groupMember(name, target, site)
		}
	}
}

func (b *builder) groupMember(name string, value, site *source.Node) {
	if name == "" || value == nil {
		return
	}
	resolved := b.resolveTarget(value)
	if resolved == nil {
		resolved = value
	}
	entry := Entry{
		Name:     naming.ToKebab(name),
		Kind:     b.kind(),
		Value:    resolved,
		Site:     site,
		Global:   b.kind() != KindMixin,
		Indirect: true,
	}
	if b.kind() == KindComponent || b.kind() == KindMixin {
		entry.Target = b.model.ResolveComponent(resolved)
	}
	b.index.add(entry)
}

// resolveTarget follows a registered value to its definition. Lazy
// registrations (`() => import('./page')`) resolve to the default export
// of the imported module.
func (b *builder) resolveTarget(value *source.Node) *source.Node {
	resolved := component.ResolveValue(b.host, value)
	if resolved.Is(treesitterhelper.FunctionKinds...) {
		if specifier := dynamicImport(resolved); specifier != "" {
			if target := b.host.ResolveQualifiedName([]string{specifier, "default"}, resolved); target != nil {
				return target
			}
		}
	}
	return resolved
}

// groupSource recognizes a registered value that stands for a whole
// collection: an indexed access `all[key]`, a property access `All.Button`,
// or a loop variable over a collection. The result is the collection, an
// object literal or a module.
func (b *builder) groupSource(value *source.Node) *source.Node {
	value = unwrap(value)

	var collection *source.Node
	switch value.Kind() {
	case treesitterhelper.KindSubscript, treesitterhelper.KindMember:
		collection = value.Field("object")
	case treesitterhelper.KindIdentifier:
		decl := b.host.ResolveLocally(value.Text(), value)
		collection = iteratedCollection(decl)
	}
	if collection == nil {
		return nil
	}

	resolved := component.ResolveValue(b.host, collectionOf(collection))
	if resolved.Is(treesitterhelper.KindObject, treesitterhelper.KindProgram) {
		return resolved
	}
	return nil
}

// iteratedCollection returns the collection a loop variable or iteration
// callback parameter ranges over
func iteratedCollection(decl *source.Node) *source.Node {
	if decl == nil {
		return nil
	}
	child := decl
	for n, depth := decl.Parent(), 0; n != nil && depth < maxIterationDepth; n, depth = n.Parent(), depth+1 {
		switch {
		case n.Is("for_in_statement"):
			if n.Field("left").Same(child) || contains(n.Field("left"), decl) {
				return n.Field("right")
			}
			return nil
		case n.Is("arrow_function", "function_expression", "function"):
			args := n.Parent()
			if !args.Is("arguments") {
				return nil
			}
			callee := args.Parent().Field("function")
			if callee.Is(treesitterhelper.KindMember) && isIterationMethod(callee.Field("property").Text()) {
				return callee.Field("object")
			}
			return nil
		}
		child = n
	}
	return nil
}

func isIterationMethod(name string) bool {
	for _, m := range iterationMethods {
		if m == name {
			return true
		}
	}
	return false
}

// collectionOf strips Object.entries(x) and friends
func collectionOf(expr *source.Node) *source.Node {
	expr = unwrap(expr)
	if !expr.Is(treesitterhelper.KindCall) {
		return expr
	}
	callee := expr.Field("function").Text()
	for _, name := range collectionCalls {
		if callee == name {
			args := treesitterhelper.Arguments(expr.TS())
			if len(args) == 0 {
				return nil
			}
			return expr.Wrap(args[0])
		}
	}
	return expr
}

// dynamicImport returns the module of `() => import('module')`
func dynamicImport(fn *source.Node) string {
	body := fn.Field("body")
	if body.Is(treesitterhelper.KindStatementBl) {
		ret := body.Wrap(treesitterhelper.FindFirst(body.TS(), treesitterhelper.NodeKind(treesitterhelper.KindReturn), body.Content()))
		body = ret.NamedChild(0)
	}
	body = unwrap(body)
	if !body.Is(treesitterhelper.KindCall) || !body.Field("function").Is("import") {
		return ""
	}
	args := treesitterhelper.Arguments(body.TS())
	if len(args) == 0 || !treesitterhelper.IsStringLiteral(args[0]) {
		return ""
	}
	return treesitterhelper.StringContent(args[0], body.Content())
}

// literalName reads a constant `name` property of an options literal
func literalName(host component.Host, obj *source.Node) string {
	if !obj.Is(treesitterhelper.KindObject) {
		return ""
	}
	for _, m := range component.ObjectMembers(host, obj) {
		if m.Name != "name" {
			continue
		}
		value := unwrap(m.Value)
		if treesitterhelper.IsStringLiteral(value.TS()) {
			return treesitterhelper.StringContent(value.TS(), value.Content())
		}
	}
	return ""
}

// exportNames lists the named exports a module declares itself
func exportNames(program *source.Node) []string {
	var names []string
	for _, stmt := range program.NamedChildren() {
		if !stmt.Is("export_statement") || stmt.HasChild("default") || stmt.Field("source") != nil {
			continue
		}
		if decl := stmt.Field("declaration"); decl != nil {
			if decl.Is("lexical_declaration", "variable_declaration") {
				for _, declarator := range decl.NamedChildren() {
					if name := declarator.Field("name"); name.Is(treesitterhelper.KindIdentifier) {
						names = append(names, name.Text())
					}
				}
			} else if name := decl.Field("name"); name != nil {
				names = append(names, name.Text())
			}
			continue
		}
		for _, spec := range stmt.Child("export_clause").NamedChildren() {
			name := spec.Field("alias")
			if name == nil {
				name = spec.Field("name")
			}
			if name != nil && name.Text() != "default" {
				names = append(names, name.Text())
			}
		}
	}
	return names
}

// isReference reports whether a registered value names its target instead
// of spelling it out
func isReference(value *source.Node) bool {
	return unwrap(value).Is(treesitterhelper.KindIdentifier, treesitterhelper.KindMember, treesitterhelper.KindSubscript)
}

func contains(outer, inner *source.Node) bool {
	if outer == nil || inner == nil {
		return false
	}
	return outer.TS().StartByte() <= inner.TS().StartByte() && inner.TS().EndByte() <= outer.TS().EndByte()
}

func unwrap(node *source.Node) *source.Node {
	if node == nil {
		return nil
	}
	return node.Wrap(treesitterhelper.UnwrapExpression(node.TS()))
}
