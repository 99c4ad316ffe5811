package types

import (
	"strings"

	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// Resolver finds the declaration a name refers to at a given position
type Resolver interface {
	ResolveLocally(name string, ctx *source.Node) *source.Node
}

const maxDepth = 32

var returnPattern = treesitterhelper.NodeKind(treesitterhelper.KindReturn)

// inferrer carries the recursion guard of one inference query
type inferrer struct {
	resolver Resolver
	visiting map[source.NodeID]bool
	depth    int
}

// Infer returns the best-effort type of an expression or declaration node
func Infer(node *source.Node, resolver Resolver) *Type {
	in := &inferrer{resolver: resolver, visiting: make(map[source.NodeID]bool)}
	return in.infer(node)
}

// FromTypeNode converts a TypeScript type node (or a type annotation) into
// a Type
func FromTypeNode(node *source.Node, resolver Resolver) *Type {
	in := &inferrer{resolver: resolver, visiting: make(map[source.NodeID]bool)}
	return in.fromTypeNode(node)
}

// FunctionOf describes a function-like node
func FunctionOf(node *source.Node, resolver Resolver) *Type {
	in := &inferrer{resolver: resolver, visiting: make(map[source.NodeID]bool)}
	return in.function(node)
}

func (in *inferrer) enter(node *source.Node) bool {
	if node == nil || in.depth >= maxDepth {
		return false
	}
	id := node.ID()
	if in.visiting[id] {
		return false
	}
	in.visiting[id] = true
	in.depth++
	return true
}

func (in *inferrer) leave(node *source.Node) {
	delete(in.visiting, node.ID())
	in.depth--
}

func (in *inferrer) resolve(name string, ctx *source.Node) *source.Node {
	if in.resolver == nil || name == "" {
		return nil
	}
	return in.resolver.ResolveLocally(name, ctx)
}

func (in *inferrer) infer(node *source.Node) *Type {
	if !in.enter(node) {
		return unknown
	}
	defer in.leave(node)

	t := in.inferNode(node)
	if t == nil {
		return unknown
	}
	if t.Node == nil && t != unknown {
		t.Node = node
	}
	return t
}

func (in *inferrer) inferNode(node *source.Node) *Type {
	switch node.Kind() {
	case "number":
		return NewPrimitive("number")
	case "string", "template_string":
		return NewPrimitive("string")
	case "true", "false":
		return NewPrimitive("boolean")
	case "null":
		return NewPrimitive("null")
	case "undefined":
		return NewPrimitive("undefined")
	case "regex":
		return NewNamed("RegExp")
	case "parenthesized_expression", "non_null_expression", "satisfies_expression", "await_expression":
		if inner := node.NamedChild(0); inner != nil {
			return in.infer(inner)
		}
	case "as_expression":
		if t := node.NamedChild(1); t != nil && t.Text() != "const" {
			return in.fromTypeNode(t)
		}
		return in.infer(node.NamedChild(0))
	case "object":
		return in.object(node)
	case "array":
		var elems []*Type
		for _, el := range node.NamedChildren() {
			elems = append(elems, in.infer(el))
		}
		return &Type{Kind: Array, Elem: NewUnion(elems...)}
	case "arrow_function", "function_expression", "function", "function_declaration",
		"generator_function", "generator_function_declaration", "method_definition":
		return in.function(node)
	case "class_declaration", "class", "abstract_class_declaration":
		if name := node.Field("name"); name != nil {
			return NewNamed(name.Text())
		}
		return NewNamed("object")
	case "new_expression":
		if ctor := node.Field("constructor"); ctor != nil {
			return NewNamed(ctor.Text(), in.typeArgs(node)...)
		}
	case "call_expression":
		return in.call(node)
	case "identifier", "shorthand_property_identifier":
		return in.identifier(node)
	case "member_expression":
		obj := Unwrap(in.infer(node.Field("object")))
		if prop := node.Field("property"); prop != nil {
			if m, ok := obj.Member(prop.Text()); ok {
				return m.Type
			}
		}
	case "binary_expression":
		return in.binary(node)
	case "unary_expression":
		switch node.Field("operator").Text() {
		case "!", "delete":
			return NewPrimitive("boolean")
		case "typeof":
			return NewPrimitive("string")
		case "void":
			return NewPrimitive("undefined")
		}
		return NewPrimitive("number")
	case "ternary_expression":
		return NewUnion(in.infer(node.Field("consequence")), in.infer(node.Field("alternative")))
	case "variable_declarator", "public_field_definition", "field_definition":
		if ann := node.Field("type"); ann != nil {
			return in.fromTypeNode(ann)
		}
		if value := node.Field("value"); value != nil {
			return in.infer(value)
		}
	case "required_parameter", "optional_parameter":
		if ann := node.Field("type"); ann != nil {
			return in.fromTypeNode(ann)
		}
		if value := node.Field("value"); value != nil {
			return in.infer(value)
		}
	case "type_alias_declaration", "interface_declaration", "enum_declaration":
		return in.fromTypeNode(node)
	case "shorthand_property_identifier_pattern":
		return in.destructured(node, node.Text())
	case "export_statement":
		if value := node.Field("value"); value != nil {
			return in.infer(value)
		}
		if decl := node.Field("declaration"); decl != nil {
			return in.infer(decl)
		}
	}
	return unknown
}

func (in *inferrer) identifier(node *source.Node) *Type {
	switch node.Text() {
	case "undefined":
		return NewPrimitive("undefined")
	case "NaN", "Infinity":
		return NewPrimitive("number")
	}
	decl := in.resolve(node.Text(), node)
	if decl == nil || decl.Same(node) {
		return unknown
	}
	return in.infer(decl)
}

// destructured looks up a name bound by an object pattern in the type of the
// destructured value
func (in *inferrer) destructured(node *source.Node, name string) *Type {
	pattern := node.Parent()
	if pattern.Is("pair_pattern") {
		pattern = pattern.Parent()
	}
	if !pattern.Is("object_pattern") {
		return unknown
	}
	decl := pattern.Parent()
	if !decl.Is("variable_declarator") {
		return unknown
	}
	value := Unwrap(in.infer(decl.Field("value")))
	if m, ok := value.Member(name); ok {
		return m.Type
	}
	return unknown
}

func (in *inferrer) object(node *source.Node) *Type {
	t := &Type{Kind: Record, Node: node}
	for _, child := range node.NamedChildren() {
		switch child.Kind() {
		case treesitterhelper.KindPair:
			key := treesitterhelper.PropertyKeyName(child.Field("key").TS(), child.Content())
			t.Members = append(t.Members, Member{Name: key, Type: in.infer(child.Field("value")), Node: child})
		case treesitterhelper.KindMethod:
			key := treesitterhelper.PropertyKeyName(child.Field("name").TS(), child.Content())
			t.Members = append(t.Members, Member{Name: key, Type: in.function(child), Node: child})
		case treesitterhelper.KindShorthand:
			t.Members = append(t.Members, Member{Name: child.Text(), Type: in.identifier(child), Node: child})
		case treesitterhelper.KindSpread:
			spread := Unwrap(in.infer(child.NamedChild(0)))
			t.Members = append(t.Members, spread.Members...)
		}
	}
	return t
}

func (in *inferrer) function(node *source.Node) *Type {
	t := &Type{Kind: Function, Node: node}
	t.Params = in.params(node.Field("parameters"))
	if param := node.Field("parameter"); param != nil {
		// single parameter arrow function without parentheses
		t.Params = []Param{{Name: param.Text(), Type: unknown}}
	}

	if ret := node.Field("return_type"); ret != nil {
		t.Return = in.fromTypeNode(ret)
		return t
	}

	body := node.Field("body")
	if body == nil {
		t.Return = unknown
		return t
	}
	if !body.Is(treesitterhelper.KindStatementBl) {
		t.Return = in.infer(body)
		return t
	}

	var returns []*Type
	for _, ret := range treesitterhelper.FindAllOutside(body.TS(), returnPattern, treesitterhelper.JSFunctionPattern, body.Content()) {
		value := body.Wrap(ret).NamedChild(0)
		if value == nil {
			returns = append(returns, NewPrimitive("void"))
			continue
		}
		returns = append(returns, in.infer(value))
	}
	if len(returns) == 0 {
		t.Return = NewPrimitive("void")
	} else {
		t.Return = NewUnion(returns...)
	}
	return t
}

func (in *inferrer) params(params *source.Node) []Param {
	var result []Param
	for _, p := range params.NamedChildren() {
		param := Param{Type: unknown}
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			pattern := p.Field("pattern")
			param.Name = pattern.Text()
			if pattern.Is("rest_pattern") {
				param.Rest = true
				param.Name = strings.TrimPrefix(param.Name, "...")
			}
			param.Optional = p.Is("optional_parameter") || p.Field("value") != nil
			if ann := p.Field("type"); ann != nil {
				param.Type = in.fromTypeNode(ann)
			} else if value := p.Field("value"); value != nil {
				param.Type = in.infer(value)
			}
		case "assignment_pattern":
			param.Name = p.Field("left").Text()
			param.Optional = true
			param.Type = in.infer(p.Field("right"))
		case "rest_pattern":
			param.Name = strings.TrimPrefix(p.Text(), "...")
			param.Rest = true
		default:
			param.Name = p.Text()
		}
		result = append(result, param)
	}
	return result
}

func (in *inferrer) typeArgs(node *source.Node) []*Type {
	var args []*Type
	for _, arg := range treesitterhelper.TypeArguments(node.TS()) {
		args = append(args, in.fromTypeNode(node.Wrap(arg)))
	}
	return args
}

func (in *inferrer) argument(call *source.Node, i int) *source.Node {
	args := treesitterhelper.Arguments(call.TS())
	if i >= len(args) {
		return nil
	}
	return call.Wrap(args[i])
}

// call infers the result of a call. Reactivity primitives are recognized by
// name; other callees are resolved and their return type is used.
func (in *inferrer) call(node *source.Node) *Type {
	callee := node.Field("function")
	typeArgs := in.typeArgs(node)
	explicit := func() *Type {
		if len(typeArgs) > 0 {
			return typeArgs[0]
		}
		return nil
	}

	name := callee.Text()
	if callee.Is(treesitterhelper.KindMember) {
		name = callee.Field("property").Text()
	}

	switch name {
	case "ref", "shallowRef", "customRef":
		inner := explicit()
		if inner == nil {
			inner = Unwrap(in.infer(in.argument(node, 0)))
		}
		if name == "shallowRef" {
			return NewNamed("ShallowRef", inner)
		}
		return NewNamed("Ref", inner)
	case "toRef":
		inner := unknown
		obj := Unwrap(in.infer(in.argument(node, 0)))
		if key := in.argument(node, 1); treesitterhelper.IsStringLiteral(key.TS()) {
			if m, ok := obj.Member(treesitterhelper.StringContent(key.TS(), key.Content())); ok {
				inner = m.Type
			}
		}
		return NewNamed("Ref", inner)
	case "computed":
		arg := in.argument(node, 0)
		inner := explicit()
		writable := false
		if arg.Is(treesitterhelper.KindObject) {
			getter := objectProperty(arg, "get")
			writable = objectProperty(arg, "set") != nil
			if inner == nil && getter != nil {
				inner = in.returnOf(getter)
			}
		} else if inner == nil {
			inner = in.returnOf(arg)
		}
		if inner == nil {
			inner = unknown
		}
		if writable {
			return NewNamed("WritableComputedRef", inner)
		}
		t := NewNamed("ComputedRef", inner)
		t.ReadOnly = true
		return t
	case "reactive", "shallowReactive":
		if inner := explicit(); inner != nil {
			return inner
		}
		return Unwrap(in.infer(in.argument(node, 0)))
	case "readonly", "shallowReadonly":
		inner := explicit()
		if inner == nil {
			inner = Unwrap(in.infer(in.argument(node, 0)))
		}
		copied := *inner
		copied.ReadOnly = true
		return &copied
	case "toRefs":
		obj := Unwrap(in.infer(in.argument(node, 0)))
		t := &Type{Kind: Record}
		for _, m := range obj.Members {
			t.Members = append(t.Members, Member{Name: m.Name, Type: NewNamed("Ref", m.Type), Optional: m.Optional, Node: m.Node})
		}
		return t
	case "unref", "toValue":
		return Unwrap(in.infer(in.argument(node, 0)))
	case "String":
		return NewPrimitive("string")
	case "Number", "parseInt", "parseFloat":
		return NewPrimitive("number")
	case "Boolean":
		return NewPrimitive("boolean")
	}

	fn := in.infer(callee)
	if fn.IsFunction() {
		return fn.Return
	}
	return unknown
}

// returnOf gives the return type of a function-valued node
func (in *inferrer) returnOf(node *source.Node) *Type {
	fn := in.infer(node)
	if fn.IsFunction() {
		return fn.Return
	}
	return nil
}

func (in *inferrer) binary(node *source.Node) *Type {
	op := node.Field("operator").Text()
	switch op {
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return NewPrimitive("boolean")
	case "&&", "||", "??":
		return NewUnion(in.infer(node.Field("left")), in.infer(node.Field("right")))
	case "+":
		left, right := in.infer(node.Field("left")), in.infer(node.Field("right"))
		if left.Name == "string" || right.Name == "string" {
			return NewPrimitive("string")
		}
		return NewPrimitive("number")
	}
	return NewPrimitive("number")
}

// objectProperty returns the value of a property (or the method) named key
// of an object literal
func objectProperty(obj *source.Node, key string) *source.Node {
	for _, child := range obj.NamedChildren() {
		switch child.Kind() {
		case treesitterhelper.KindPair:
			if treesitterhelper.PropertyKeyName(child.Field("key").TS(), child.Content()) == key {
				return child.Field("value")
			}
		case treesitterhelper.KindMethod:
			if child.Field("name").Text() == key {
				return child
			}
		}
	}
	return nil
}
