package types

import (
	"strings"

	"github.com/shopware/vuemodel/internal/source"
)

type Kind int

const (
	Unknown Kind = iota
	Primitive
	Literal
	Record
	Function
	Named
	Union
	Array
	Tuple
)

// Type is a best-effort description of a value. It is not a type checker
// result: anything that cannot be recovered syntactically is Unknown.
type Type struct {
	Kind Kind

	// Name is the primitive name ("string") or the referenced type name
	// ("Ref", "Date")
	Name string

	// Literal holds the source text of a literal type ("'a'", "42")
	Literal string

	// Members of a record, in declaration order
	Members []Member

	// Calls are the call signatures of a record (`{ (e: 'x'): void }`)
	Calls []*Type

	// Params and Return describe a function; Params also holds the
	// elements of a tuple
	Params []Param
	Return *Type

	// Args are the type arguments of a named type
	Args []*Type

	// Elems are the alternatives of a union
	Elems []*Type

	// Elem is the element type of an array
	Elem *Type

	// ReadOnly marks values produced by computed() and readonly()
	ReadOnly bool

	// Node is the type node or expression the type was read from
	Node *source.Node
}

// Member is a record property
type Member struct {
	Name     string
	Type     *Type
	Optional bool
	Node     *source.Node
}

// Param is a function or tuple parameter
type Param struct {
	Name     string
	Type     *Type
	Optional bool
	Rest     bool
}

var unknown = &Type{Kind: Unknown}

// UnknownType returns the shared Unknown type
func UnknownType() *Type {
	return unknown
}

// NewPrimitive returns a primitive type such as string or number
func NewPrimitive(name string) *Type {
	return &Type{Kind: Primitive, Name: name}
}

// NewNamed returns a reference to a named type with optional arguments
func NewNamed(name string, args ...*Type) *Type {
	return &Type{Kind: Named, Name: name, Args: args}
}

// NewUnion flattens nested unions; a single alternative is returned as is
func NewUnion(elems ...*Type) *Type {
	var flat []*Type
	seen := make(map[string]bool)
	for _, e := range elems {
		if e == nil {
			continue
		}
		parts := []*Type{e}
		if e.Kind == Union {
			parts = e.Elems
		}
		for _, p := range parts {
			key := p.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			flat = append(flat, p)
		}
	}
	switch len(flat) {
	case 0:
		return unknown
	case 1:
		return flat[0]
	}
	return &Type{Kind: Union, Elems: flat}
}

// IsUnknown reports whether nothing is known about the type
func (t *Type) IsUnknown() bool {
	return t == nil || t.Kind == Unknown
}

// IsFunction reports whether the type is callable
func (t *Type) IsFunction() bool {
	return t != nil && t.Kind == Function
}

// Member returns the record member with the given name
func (t *Type) Member(name string) (Member, bool) {
	if t == nil {
		return Member{}, false
	}
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// refWrappers are the reactive reference types whose value is auto-unwrapped
// in templates and on component instances.
var refWrappers = map[string]bool{
	"Ref":                 true,
	"ShallowRef":          true,
	"ComputedRef":         true,
	"WritableComputedRef": true,
	"MaybeRef":            true,
}

// IsRef reports whether the type is a reactive reference wrapper
func (t *Type) IsRef() bool {
	return t != nil && t.Kind == Named && refWrappers[t.Name]
}

// Unwrap strips reactive reference wrappers. The read-only flag of a
// computed reference survives the unwrap.
func Unwrap(t *Type) *Type {
	for t.IsRef() {
		readOnly := t.ReadOnly || t.Name == "ComputedRef"
		inner := unknown
		if len(t.Args) > 0 && t.Args[0] != nil {
			inner = t.Args[0]
		}
		if readOnly && !inner.ReadOnly {
			copied := *inner
			copied.ReadOnly = true
			inner = &copied
		}
		t = inner
	}
	return t
}

// String renders the type in TypeScript notation
func (t *Type) String() string {
	if t == nil {
		return "unknown"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	if t == nil {
		b.WriteString("unknown")
		return
	}
	switch t.Kind {
	case Unknown:
		b.WriteString("unknown")
	case Primitive:
		b.WriteString(t.Name)
	case Literal:
		b.WriteString(t.Literal)
	case Named:
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteString("<")
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b)
			}
			b.WriteString(">")
		}
	case Union:
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteString(" | ")
			}
			e.write(b)
		}
	case Array:
		elem := t.Elem
		if elem != nil && (elem.Kind == Union || elem.Kind == Function) {
			b.WriteString("(")
			elem.write(b)
			b.WriteString(")")
		} else {
			elem.write(b)
		}
		b.WriteString("[]")
	case Tuple:
		b.WriteString("[")
		writeParams(b, t.Params)
		b.WriteString("]")
	case Record:
		if len(t.Members) == 0 && len(t.Calls) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, m := range t.Members {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(m.Name)
			if m.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			m.Type.write(b)
		}
		b.WriteString(" }")
	case Function:
		b.WriteString("(")
		writeParams(b, t.Params)
		b.WriteString(") => ")
		t.Return.write(b)
	}
}

func writeParams(b *strings.Builder, params []Param) {
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Rest {
			b.WriteString("...")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteString("?")
		}
		b.WriteString(": ")
		p.Type.write(b)
	}
}
