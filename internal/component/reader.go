package component

import (
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// maxIndirection bounds how many variable hops a value is followed through
const maxIndirection = 8

var returnPattern = treesitterhelper.NodeKind(treesitterhelper.KindReturn)

// Predicate filters the properties of a section by name and value
type Predicate func(name string, value *source.Node) bool

// property is one entry of an object literal or string array
type property struct {
	Name string
	// Node is the pair, method, shorthand property or string element
	Node *source.Node
	// Value is the property value; the method itself for methods
	Value *source.Node
}

func (p property) member() Member {
	m := newMember(p.Name, p.Node)
	m.Value = p.Value
	return m
}

// ReadSection extracts the members of a section of an options literal:
//
//	{ props: { a: String } }         // object literal
//	{ props: ['a', 'b'] }            // string array, props only
//	{ data() { return { a: 1 } } }   // function returning a literal
//	{ props: sharedProps }           // reference to a local binding
//
// predicate may be nil.
func ReadSection(host Host, owner *source.Node, section Section, predicate Predicate) []Member {
	var members []Member
	for _, p := range readSection(host, owner, string(section), section == SectionProps, predicate) {
		members = append(members, p.member())
	}
	return members
}

func readSection(host Host, owner *source.Node, name string, canBeArray bool, predicate Predicate) []property {
	prop, ok := findProperty(owner, name)
	if !ok {
		return nil
	}
	return readValue(host, prop.Value, canBeArray, predicate)
}

// readValue reads the entries of a section value
func readValue(host Host, value *source.Node, canBeArray bool, predicate Predicate) []property {
	raw := unwrap(value)
	init := resolveValue(host, raw)
	if init.Is(treesitterhelper.FunctionKinds...) {
		init = returnedObject(host, init)
	}

	if init.Is(treesitterhelper.KindObject) {
		var result []property
		for _, p := range objectProperties(host, init) {
			if predicate == nil || predicate(p.Name, p.Value) {
				result = append(result, p)
			}
		}
		return result
	}

	if canBeArray {
		for _, candidate := range []*source.Node{init, raw} {
			if candidate.Is(treesitterhelper.KindArray) {
				return stringElements(candidate)
			}
		}
	}
	return nil
}

// findProperty returns the last direct property of an object literal with
// the given name
func findProperty(obj *source.Node, name string) (property, bool) {
	var found property
	ok := false
	for _, p := range directProperties(obj) {
		if p.Name == name {
			found, ok = p, true
		}
	}
	return found, ok
}

// directProperties lists the named entries of an object literal in source
// order, without following spreads
func directProperties(obj *source.Node) []property {
	if !obj.Is(treesitterhelper.KindObject) {
		return nil
	}
	var result []property
	for _, child := range obj.NamedChildren() {
		if p, ok := propertyOf(child); ok {
			result = append(result, p)
		}
	}
	return result
}

func propertyOf(child *source.Node) (property, bool) {
	switch child.Kind() {
	case treesitterhelper.KindPair:
		name := treesitterhelper.PropertyKeyName(child.Field("key").TS(), child.Content())
		return property{Name: name, Node: child, Value: child.Field("value")}, name != ""
	case treesitterhelper.KindMethod:
		name := treesitterhelper.PropertyKeyName(child.Field("name").TS(), child.Content())
		return property{Name: name, Node: child, Value: child}, name != ""
	case treesitterhelper.KindShorthand:
		return property{Name: child.Text(), Node: child, Value: child}, true
	}
	return property{}, false
}

// objectProperties lists the entries of an object literal, expanding spread
// elements that resolve to other object literals. A later entry replaces an
// earlier one of the same name in place.
func objectProperties(host Host, obj *source.Node) []property {
	return collectProperties(host, obj, make(map[source.NodeID]bool))
}

func collectProperties(host Host, obj *source.Node, visited map[source.NodeID]bool) []property {
	if !obj.Is(treesitterhelper.KindObject) || visited[obj.ID()] {
		return nil
	}
	visited[obj.ID()] = true

	var result []property
	for _, child := range obj.NamedChildren() {
		if child.Is(treesitterhelper.KindSpread) {
			spread := resolveValue(host, child.NamedChild(0))
			for _, p := range collectProperties(host, spread, visited) {
				result = putProperty(result, p)
			}
			continue
		}
		if p, ok := propertyOf(child); ok {
			result = putProperty(result, p)
		}
	}
	return result
}

func putProperty(list []property, p property) []property {
	for i := range list {
		if list[i].Name == p.Name {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}

// stringElements reads the string literals of an array, descending into
// nested arrays
func stringElements(array *source.Node) []property {
	var result []property
	for _, el := range array.NamedChildren() {
		switch {
		case treesitterhelper.IsStringLiteral(el.TS()):
			name := treesitterhelper.StringContent(el.TS(), el.Content())
			if name != "" {
				result = append(result, property{Name: name, Node: el, Value: el})
			}
		case el.Is(treesitterhelper.KindArray):
			result = append(result, stringElements(el)...)
		}
	}
	return result
}

// unwrap strips parentheses and type assertions
func unwrap(node *source.Node) *source.Node {
	if node == nil {
		return nil
	}
	return node.Wrap(treesitterhelper.UnwrapExpression(node.TS()))
}

// resolveValue follows identifiers and property accesses to the value they
// are bound to. Nodes that cannot be followed are returned unchanged; an
// identifier that resolves to nothing gives nil.
func resolveValue(host Host, node *source.Node) *source.Node {
	node = unwrap(node)
	for range maxIndirection {
		switch node.Kind() {
		case treesitterhelper.KindIdentifier, treesitterhelper.KindShorthand:
			decl := host.ResolveLocally(node.Text(), node)
			if decl == nil || decl.Same(node) {
				return nil
			}
			value := declarationValue(decl)
			if value == nil {
				return nil
			}
			node = unwrap(value)
		case treesitterhelper.KindMember:
			value := memberValue(host, node)
			if value == nil {
				return nil
			}
			node = unwrap(value)
		default:
			return node
		}
	}
	return node
}

// declarationValue is the value a resolved declaration binds
func declarationValue(decl *source.Node) *source.Node {
	switch decl.Kind() {
	case "variable_declarator":
		return decl.Field("value")
	case "export_statement":
		if value := decl.Field("value"); value != nil {
			return value
		}
		return decl.Field("declaration")
	case "identifier", "shorthand_property_identifier_pattern", "required_parameter", "optional_parameter":
		// parameters and destructured bindings carry no literal value
		return nil
	}
	return decl.DeclaredValue()
}

// memberValue resolves `obj.prop` where obj is an object literal or a
// module namespace
func memberValue(host Host, node *source.Node) *source.Node {
	prop := node.Field("property")
	if prop == nil {
		return nil
	}
	obj := resolveValue(host, node.Field("object"))
	switch {
	case obj.Is(treesitterhelper.KindObject):
		p, ok := findProperty(obj, prop.Text())
		if !ok {
			return nil
		}
		return p.Value
	case obj.Is(treesitterhelper.KindProgram):
		return host.ResolveQualifiedName([]string{obj.Path(), prop.Text()}, obj)
	}
	return nil
}

// returnedObject finds the object literal a function returns, either as
// an expression body or through a return statement
func returnedObject(host Host, fn *source.Node) *source.Node {
	body := fn.Field("body")
	if body == nil {
		return nil
	}
	if !body.Is(treesitterhelper.KindStatementBl) {
		if value := resolveValue(host, body); value.Is(treesitterhelper.KindObject) {
			return value
		}
		return nil
	}
	for _, ret := range treesitterhelper.FindAllOutside(body.TS(), returnPattern, treesitterhelper.JSFunctionPattern, body.Content()) {
		value := resolveValue(host, body.Wrap(ret).NamedChild(0))
		if value.Is(treesitterhelper.KindObject) {
			return value
		}
	}
	return nil
}

// isFunctionValue reports whether a property value is callable: a
// function, a reference to one, or a computed getter/setter object
func isFunctionValue(host Host, value *source.Node) bool {
	resolved := resolveValue(host, value)
	if resolved.Is(treesitterhelper.FunctionKinds...) {
		return true
	}
	if resolved.Is(treesitterhelper.KindObject) {
		_, ok := findProperty(resolved, "get")
		return ok
	}
	return false
}

// FunctionValued accepts properties whose value is callable
func FunctionValued(host Host) Predicate {
	return func(_ string, value *source.Node) bool {
		return isFunctionValue(host, value)
	}
}

// ResolveValue follows identifiers and property accesses to the value they
// are bound to; nil when a reference cannot be followed
func ResolveValue(host Host, node *source.Node) *source.Node {
	return resolveValue(host, node)
}

// ObjectMembers lists the properties of an object literal in source order.
// Spreads of other literals are expanded once; a later property replaces an
// earlier one of the same name.
func ObjectMembers(host Host, obj *source.Node) []Member {
	var members []Member
	for _, p := range objectProperties(host, resolveValue(host, obj)) {
		members = append(members, p.member())
	}
	return members
}
