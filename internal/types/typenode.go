package types

import (
	"fmt"
	"strings"

	"github.com/shopware/vuemodel/internal/source"
)

func (in *inferrer) fromTypeNode(node *source.Node) *Type {
	if !in.enter(node) {
		return unknown
	}
	defer in.leave(node)

	t := in.typeNode(node)
	if t == nil {
		return unknown
	}
	if t.Node == nil && t != unknown {
		t.Node = node
	}
	return t
}

func (in *inferrer) typeNode(node *source.Node) *Type {
	switch node.Kind() {
	case "type_annotation", "parenthesized_type", "type", "opting_type_annotation", "omitting_type_annotation":
		if inner := node.NamedChild(0); inner != nil {
			return in.fromTypeNode(inner)
		}
	case "predefined_type":
		return NewPrimitive(node.Text())
	case "literal_type":
		return &Type{Kind: Literal, Literal: node.Text()}
	case "type_identifier", "nested_type_identifier", "identifier":
		return in.namedType(node, node.Text(), nil)
	case "generic_type":
		var args []*Type
		for _, arg := range node.Field("type_arguments").NamedChildren() {
			args = append(args, in.fromTypeNode(arg))
		}
		return in.namedType(node, node.Field("name").Text(), args)
	case "object_type", "interface_body":
		return in.objectType(node)
	case "function_type":
		return &Type{
			Kind:   Function,
			Params: in.params(node.Field("parameters")),
			Return: in.fromTypeNode(node.Field("return_type")),
		}
	case "union_type":
		var elems []*Type
		for _, e := range node.NamedChildren() {
			elems = append(elems, in.fromTypeNode(e))
		}
		return NewUnion(elems...)
	case "intersection_type":
		merged := &Type{Kind: Record}
		for _, e := range node.NamedChildren() {
			part := in.fromTypeNode(e)
			if part.Kind != Record {
				continue
			}
			merged.Members = mergeMembers(merged.Members, part.Members)
			merged.Calls = append(merged.Calls, part.Calls...)
		}
		return merged
	case "array_type":
		return &Type{Kind: Array, Elem: in.fromTypeNode(node.NamedChild(0))}
	case "readonly_type":
		inner := in.fromTypeNode(node.NamedChild(0))
		copied := *inner
		copied.ReadOnly = true
		return &copied
	case "tuple_type":
		t := &Type{Kind: Tuple}
		for i, el := range node.NamedChildren() {
			t.Params = append(t.Params, in.tupleElement(el, i))
		}
		return t
	case "type_query":
		return in.infer(node.NamedChild(0))
	case "type_alias_declaration":
		return in.fromTypeNode(node.Field("value"))
	case "interface_declaration":
		return in.interfaceType(node)
	case "enum_declaration", "class_declaration", "abstract_class_declaration":
		return NewNamed(node.Field("name").Text())
	}
	return unknown
}

// tupleElement reads a tuple member; labeled members (`[id: number]`)
// keep their label as the parameter name
func (in *inferrer) tupleElement(el *source.Node, index int) Param {
	param := Param{Name: fmt.Sprintf("arg%d", index)}
	switch el.Kind() {
	case "required_parameter", "optional_parameter":
		label := el.Field("pattern")
		if label == nil {
			label = el.Field("name")
		}
		if label != nil {
			param.Name = label.Text()
			if label.Is("rest_pattern") {
				param.Rest = true
				param.Name = strings.TrimPrefix(param.Name, "...")
			}
		}
		param.Optional = el.Is("optional_parameter")
		ann := el.Field("type")
		if ann == nil {
			ann = el.Child("type_annotation")
		}
		param.Type = in.fromTypeNode(ann)
	case "optional_type":
		param.Optional = true
		param.Type = in.fromTypeNode(el.NamedChild(0))
	case "rest_type":
		param.Rest = true
		param.Type = in.fromTypeNode(el.NamedChild(0))
	default:
		param.Type = in.fromTypeNode(el)
	}
	return param
}

// namedType resolves a type reference to its alias or interface when it is
// declared in the project; otherwise the reference stays symbolic
func (in *inferrer) namedType(node *source.Node, name string, args []*Type) *Type {
	if _, wrapper := refWrappers[name]; wrapper || len(args) > 0 {
		if name == "Array" || name == "ReadonlyArray" {
			if len(args) > 0 {
				return &Type{Kind: Array, Elem: args[0]}
			}
		}
		return NewNamed(name, args...)
	}

	decl := in.resolve(name, node)
	if decl.Is("type_alias_declaration", "interface_declaration") {
		resolved := in.fromTypeNode(decl)
		if !resolved.IsUnknown() {
			return resolved
		}
	}
	return NewNamed(name)
}

func (in *inferrer) objectType(node *source.Node) *Type {
	t := &Type{Kind: Record}
	for _, child := range node.NamedChildren() {
		switch child.Kind() {
		case "property_signature":
			name := propertyName(child.Field("name"))
			if name == "" {
				continue
			}
			t.Members = append(t.Members, Member{
				Name:     name,
				Type:     in.fromTypeNode(child.Field("type")),
				Optional: child.HasChild("?"),
				Node:     child,
			})
		case "method_signature":
			name := propertyName(child.Field("name"))
			if name == "" {
				continue
			}
			t.Members = append(t.Members, Member{
				Name: name,
				Type: &Type{
					Kind:   Function,
					Params: in.params(child.Field("parameters")),
					Return: in.fromTypeNode(child.Field("return_type")),
					Node:   child,
				},
				Optional: child.HasChild("?"),
				Node:     child,
			})
		case "call_signature":
			t.Calls = append(t.Calls, &Type{
				Kind:   Function,
				Params: in.params(child.Field("parameters")),
				Return: in.fromTypeNode(child.Field("return_type")),
				Node:   child,
			})
		}
	}
	return t
}

func (in *inferrer) interfaceType(node *source.Node) *Type {
	body := node.Field("body")
	t := in.fromTypeNode(body)
	if t.Kind != Record {
		t = &Type{Kind: Record}
	}
	for _, clause := range node.NamedChildren() {
		if !clause.Is("extends_type_clause", "extends_clause") {
			continue
		}
		for _, base := range clause.NamedChildren() {
			parent := in.fromTypeNode(base)
			if parent.Kind == Record {
				t.Members = mergeMembers(parent.Members, t.Members)
			}
		}
	}
	return t
}

// mergeMembers appends overlay to base; a member of overlay replaces the
// base member of the same name in place
func mergeMembers(base, overlay []Member) []Member {
	result := append([]Member(nil), base...)
	for _, m := range overlay {
		replaced := false
		for i := range result {
			if result[i].Name == m.Name {
				result[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, m)
		}
	}
	return result
}

func propertyName(key *source.Node) string {
	switch key.Kind() {
	case "string":
		text := key.Text()
		if len(text) >= 2 {
			return text[1 : len(text)-1]
		}
		return ""
	case "computed_property_name":
		return key.NamedChild(0).Text()
	}
	return key.Text()
}

